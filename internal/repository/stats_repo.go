package repository

import "context"

// StatsRepository aggregates the admin dashboard counters.
type StatsRepository struct {
	users *UserRepository
	taps  *TapEventRepository
	txs   *TransactionRepository
}

func NewStatsRepository(users *UserRepository, taps *TapEventRepository, txs *TransactionRepository) *StatsRepository {
	return &StatsRepository{users: users, taps: taps, txs: txs}
}

func (r *StatsRepository) UserCounts(ctx context.Context) (UserCounts, error) {
	return r.users.Counts(ctx)
}

func (r *StatsRepository) TapCounts(ctx context.Context) (TapCounts, error) {
	return r.taps.Counts(ctx)
}

func (r *StatsRepository) PurchaseCounts(ctx context.Context) (PurchaseCounts, error) {
	return r.txs.PurchaseCounts(ctx)
}
