package email

// Config holds outbound email configuration. The Postmark tokens are
// optional so local environments can run with the log sender instead;
// sender and support addresses are always required because they define
// the From and Reply-To identity of every message.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"noreply@chatloom.app"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@chatloom.app"`
}

// Configured reports whether Postmark delivery can be used.
func (c Config) Configured() bool {
	return c.PostmarkServerToken != "" && c.PostmarkAccountToken != ""
}
