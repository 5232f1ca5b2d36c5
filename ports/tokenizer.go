package ports

// Tokenizer issues and verifies the bearer tokens of local API clients
type Tokenizer interface {
	IssueClientToken(subject string) (string, error)
	VerifyClientToken(token string) (string, error)
}
