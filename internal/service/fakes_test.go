package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"pyramid_empire/internal/chain"
	"pyramid_empire/internal/domain"
	"pyramid_empire/internal/repository"

	"github.com/jackc/pgx/v5"
)

// memStore is an in-memory stand-in for the Postgres repositories. WithLock
// hands fn copies and only stores them when fn succeeds, like a rollback.
type memStore struct {
	mu          sync.Mutex
	lock        sync.Mutex
	users       map[int64]*domain.User
	progress    map[int64]*domain.GameProgress
	referrals   []*domain.Referral
	txs         []*domain.Transaction
	quests      map[int64]*domain.Quest
	completions map[[2]int64]bool
	taps        []*domain.TapEvent
	audits      []*domain.AuditLog
	nextID      int64
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[int64]*domain.User{},
		progress:    map[int64]*domain.GameProgress{},
		quests:      map[int64]*domain.Quest{},
		completions: map[[2]int64]bool{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addUser(u domain.User, p domain.GameProgress) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		u.ID = m.id()
	}
	if u.ReferralCode == "" {
		u.ReferralCode = "code" + string(rune('a'+u.ID))
	}
	u.WalletAddress = strings.ToLower(u.WalletAddress)
	p.UserID = u.ID
	if p.Level == 0 {
		p.Level = 1
	}
	m.users[u.ID] = &u
	m.progress[u.ID] = &p
	return &u
}

func (m *memStore) user(id int64) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.users[id]
}

func (m *memStore) prog(id int64) domain.GameProgress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.progress[id]
}

// UserStore

func (m *memStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *memStore) GetByWallet(_ context.Context, wallet string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.WalletAddress == strings.ToLower(wallet) {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) GetByReferralCode(_ context.Context, code string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ReferralCode == code {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) Register(_ context.Context, u *domain.User, p *domain.GameProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.WalletAddress == u.WalletAddress {
			return repository.ErrDuplicate
		}
	}
	u.ID = m.id()
	u.ReferralCode = "ref" + string(rune('a'+u.ID))
	p.UserID = u.ID
	cu, cp := *u, *p
	m.users[u.ID] = &cu
	m.progress[u.ID] = &cp
	if u.ReferredBy != nil {
		m.referrals = append(m.referrals, &domain.Referral{ID: m.id(), ReferrerID: *u.ReferredBy, ReferredID: u.ID})
	}
	return nil
}

func (m *memStore) SetBanned(_ context.Context, id int64, banned bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.IsBanned = banned
	return nil
}

// ProgressStore

func (m *memStore) Get(_ context.Context, userID int64) (*domain.GameProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (m *memStore) WithLock(ctx context.Context, userID int64, fn repository.LockedFunc) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	u, err := m.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	p, err := m.Get(ctx, userID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	snapshot := len(m.txs)
	m.mu.Unlock()

	if err := fn(nil, u, p); err != nil {
		m.mu.Lock()
		m.txs = m.txs[:snapshot]
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p.UpdatedAt = time.Now()
	m.users[userID] = u
	m.progress[userID] = p
	return nil
}

func (m *memStore) Leaderboard(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []domain.LeaderboardEntry
	for id, p := range m.progress {
		u := m.users[id]
		entries = append(entries, domain.LeaderboardEntry{UserID: id, WalletAddress: u.WalletAddress, Level: p.Level, Bricks: p.Bricks, IsPremium: u.IsPremium})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Bricks == entries[j].Bricks {
			return entries[i].UserID < entries[j].UserID
		}
		return entries[i].Bricks > entries[j].Bricks
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (m *memStore) Rank(_ context.Context, bricks int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ahead int64
	for _, p := range m.progress {
		if p.Bricks > bricks {
			ahead++
		}
	}
	return ahead + 1, nil
}

// TapEventStore

type memTaps struct{ m *memStore }

func (t memTaps) CreateWithTx(_ context.Context, _ pgx.Tx, ev *domain.TapEvent) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	ev.ID = t.m.id()
	t.m.taps = append(t.m.taps, ev)
	return nil
}

// ReferralStore

func (m *memStore) ActivateWithTx(_ context.Context, _ pgx.Tx, referredID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.referrals {
		if r.ReferredID == referredID && !r.Activated {
			r.Activated = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CountActivatedWithTx(_ context.Context, _ pgx.Tx, referrerID int64) (int, error) {
	s, err := m.Stats(context.Background(), referrerID)
	return s.Activated, err
}

func (m *memStore) Stats(_ context.Context, referrerID int64) (domain.ReferralStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s domain.ReferralStats
	for _, r := range m.referrals {
		if r.ReferrerID == referrerID {
			s.Total++
			if r.Activated {
				s.Activated++
			}
		}
	}
	return s, nil
}

// TransactionStore

type memTxs struct{ m *memStore }

func (t memTxs) BeginPurchase(_ context.Context, tx *domain.Transaction) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	for _, existing := range t.m.txs {
		if existing.TxHash != nil && *existing.TxHash == *tx.TxHash {
			if existing.Status != domain.TransactionFailed {
				return repository.ErrDuplicate
			}
			existing.Status = domain.TransactionPending
			existing.UserID, existing.ItemID, existing.Amount = tx.UserID, tx.ItemID, tx.Amount
			existing.FailureReason = ""
			tx.ID = existing.ID
			tx.Kind = existing.Kind
			tx.Status = domain.TransactionPending
			return nil
		}
	}
	tx.ID = t.m.id()
	tx.Kind = domain.TransactionKindPurchase
	tx.Status = domain.TransactionPending
	c := *tx
	t.m.txs = append(t.m.txs, &c)
	return nil
}

func (t memTxs) find(id int64) *domain.Transaction {
	for _, tx := range t.m.txs {
		if tx.ID == id {
			return tx
		}
	}
	return nil
}

func (t memTxs) MarkFailed(_ context.Context, id int64, reason string) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if tx := t.find(id); tx != nil && tx.Status == domain.TransactionPending {
		tx.Status = domain.TransactionFailed
		tx.FailureReason = reason
	}
	return nil
}

func (t memTxs) ConfirmWithTx(_ context.Context, _ pgx.Tx, in *domain.Transaction) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	tx := t.find(in.ID)
	if tx == nil || tx.Status != domain.TransactionPending {
		return repository.ErrDuplicate
	}
	now := time.Now()
	tx.Status = domain.TransactionConfirmed
	tx.ConfirmedAt = &now
	in.Status = domain.TransactionConfirmed
	in.ConfirmedAt = &now
	return nil
}

func (t memTxs) CreateWithTx(_ context.Context, _ pgx.Tx, in *domain.Transaction) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	in.ID = t.m.id()
	c := *in
	t.m.txs = append(t.m.txs, &c)
	return nil
}

func (t memTxs) GetByUserID(_ context.Context, userID int64, _ int) ([]*domain.Transaction, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	var out []*domain.Transaction
	for _, tx := range t.m.txs {
		if tx.UserID == userID {
			c := *tx
			out = append(out, &c)
		}
	}
	return out, nil
}

func (t memTxs) GetByHash(_ context.Context, hash string) (*domain.Transaction, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	for _, tx := range t.m.txs {
		if tx.TxHash != nil && *tx.TxHash == hash {
			c := *tx
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (t memTxs) CountConfirmedPurchases(_ context.Context, userID int64) (int, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	n := 0
	for _, tx := range t.m.txs {
		if tx.UserID == userID && tx.Kind == domain.TransactionKindPurchase && tx.Status == domain.TransactionConfirmed {
			n++
		}
	}
	return n, nil
}

func (t memTxs) ExpirePending(_ context.Context, cutoff time.Time) (int64, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	var n int64
	for _, tx := range t.m.txs {
		if tx.Status == domain.TransactionPending && tx.CreatedAt.Before(cutoff) {
			tx.Status = domain.TransactionFailed
			tx.FailureReason = string(domain.ReasonTimeout)
			n++
		}
	}
	return n, nil
}

// QuestStore

type memQuests struct{ m *memStore }

func (q memQuests) GetActive(_ context.Context) ([]*domain.Quest, error) {
	q.m.mu.Lock()
	defer q.m.mu.Unlock()
	var out []*domain.Quest
	for _, quest := range q.m.quests {
		if quest.IsActive {
			out = append(out, quest)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (q memQuests) add(quest domain.Quest) *domain.Quest {
	q.m.mu.Lock()
	defer q.m.mu.Unlock()
	quest.ID = q.m.id()
	q.m.quests[quest.ID] = &quest
	return &quest
}

func (q memQuests) GetByID(_ context.Context, id int64) (*domain.Quest, error) {
	q.m.mu.Lock()
	defer q.m.mu.Unlock()
	quest, ok := q.m.quests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return quest, nil
}

func (q memQuests) IsCompleted(_ context.Context, userID, questID int64) (bool, error) {
	q.m.mu.Lock()
	defer q.m.mu.Unlock()
	return q.m.completions[[2]int64{userID, questID}], nil
}

func (q memQuests) CompletedQuestIDs(_ context.Context, userID int64) (map[int64]bool, error) {
	q.m.mu.Lock()
	defer q.m.mu.Unlock()
	out := map[int64]bool{}
	for key := range q.m.completions {
		if key[0] == userID {
			out[key[1]] = true
		}
	}
	return out, nil
}

func (q memQuests) CompleteWithTx(_ context.Context, _ pgx.Tx, c *domain.QuestCompletion) error {
	q.m.mu.Lock()
	defer q.m.mu.Unlock()
	key := [2]int64{c.UserID, c.QuestID}
	if q.m.completions[key] {
		return domain.ErrAlreadyCompleted
	}
	q.m.completions[key] = true
	c.ID = q.m.id()
	return nil
}

// AuditStore

func (m *memStore) Create(_ context.Context, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, log)
	return nil
}

func (m *memStore) auditActions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, a := range m.audits {
		out = append(out, a.Action)
	}
	return out
}

type fakeVerifier struct {
	calls    int
	transfer *chain.Transfer
	err      error
	onVerify func()
}

func (f *fakeVerifier) Verify(_ context.Context, exp chain.Expectation) (*chain.Transfer, error) {
	f.calls++
	if f.onVerify != nil {
		f.onVerify()
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.transfer != nil {
		return f.transfer, nil
	}
	return &chain.Transfer{From: exp.From, Value: exp.MinAmount, BlockNumber: 100}, nil
}

type fakePartner struct {
	verified bool
	err      error
	calls    int
}

func (f *fakePartner) Verify(context.Context, string, int64) (bool, error) {
	f.calls++
	return f.verified, f.err
}

type published struct {
	userID  int64
	msgType string
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
}

func (r *recordingPublisher) PublishToUser(userID int64, msgType string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, published{userID, msgType})
}
