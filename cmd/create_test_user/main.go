package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"pyramid_empire/internal/db"
	"pyramid_empire/internal/domain"
	"pyramid_empire/internal/game"
	"pyramid_empire/internal/logger"
	"pyramid_empire/internal/repository"
	"pyramid_empire/internal/service"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
)

// Creates (or reuses) a wallet user and prints a session token for manual
// API testing. Without -wallet a fresh key is generated and printed.
func main() {
	wallet := flag.String("wallet", "", "wallet address of the test user")
	flag.Parse()

	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Fatal("JWT_SECRET not set")
	}

	if *wallet == "" {
		key, err := crypto.GenerateKey()
		if err != nil {
			logger.Fatal("generate key", "error", err)
		}
		*wallet = crypto.PubkeyToAddress(key.PublicKey).Hex()
		fmt.Printf("private_key=%x\n", crypto.FromECDSA(key))
	}
	if !common.IsHexAddress(*wallet) {
		logger.Fatal("invalid wallet address", "wallet", *wallet)
	}
	addr := strings.ToLower(common.HexToAddress(*wallet).Hex())

	ctx := context.Background()
	pool := db.Connect(ctx, dsn)
	defer pool.Close()

	repo := repository.NewUserRepository(pool)

	u, err := repo.GetByWallet(ctx, addr)
	switch {
	case err == nil:
		logger.Info("user already exists", "id", u.ID)
	case errors.Is(err, domain.ErrNotFound):
		u = &domain.User{WalletAddress: addr}
		p := &domain.GameProgress{Level: 1, Energy: game.MaxEnergy, BoostMultiplier: 1, QuestBonusMultiplier: 1}
		if err := repo.Register(ctx, u, p); err != nil {
			logger.Fatal("create user failed", "error", err)
		}
		logger.Info("user created", "id", u.ID, "referral_code", u.ReferralCode)
	default:
		logger.Fatal("get by wallet failed", "error", err)
	}

	service.InitJWT(secret, 72*time.Hour)
	token, err := service.GenerateJWT(u.ID, u.WalletAddress)
	if err != nil {
		logger.Fatal("failed to generate token", "error", err)
	}
	fmt.Printf("wallet=%s\ntoken=%s\n", u.WalletAddress, token)
}
