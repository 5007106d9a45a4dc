package service

// Services aggregates the application services wired by the container
type Services struct {
	Auth         *AuthService
	Organization *OrganizationService
	Election     *ElectionService
	Voting       *VotingService
	Cache        *CacheService
}
