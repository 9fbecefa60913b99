package pgsql

import (
	portsrepo "github.com/cpenarrieta/finsight/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	itemRepo := newPgxItemRepository(dbPool)
	accountRepo := newPgxAccountRepository(dbPool)
	transactionRepo := newPgxTransactionRepository(dbPool)
	investmentRepo := newPgxInvestmentRepository(dbPool)
	categoryRepo := newPgxCategoryRepository(dbPool)
	tagRepo := newPgxTagRepository(dbPool)

	return portsrepo.RepositoryProvider{
		ItemRepo:        itemRepo,
		AccountRepo:     accountRepo,
		TransactionRepo: transactionRepo,
		InvestmentRepo:  investmentRepo,
		CategoryRepo:    categoryRepo,
		TagRepo:         tagRepo,
	}
}
