package handler

// CookieConfig はセッションCookieの属性。
type CookieConfig struct {
	Secure bool
	Domain string
}
