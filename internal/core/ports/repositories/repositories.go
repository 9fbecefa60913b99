package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	ItemRepo        ItemRepository
	AccountRepo     AccountRepository
	TransactionRepo TransactionRepository
	InvestmentRepo  InvestmentRepository
	CategoryRepo    CategoryReader
	TagRepo         TagRepository
}
