package cart

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// CookieName is the cookie holding the serialized cart
	CookieName = "cart-items"
	// CookieTTL is how long the browser keeps the cart cookie
	CookieTTL = 7 * 24 * time.Hour
	// CookieSizeWarn is the encoded value size past which browsers may
	// silently drop the cookie
	CookieSizeWarn = 4000
)

// CookiePersister writes the cart to the response as the cart-items cookie
type CookiePersister struct {
	w      http.ResponseWriter
	secure bool
	logger *zap.Logger
	now    func() time.Time
}

// NewCookiePersister creates a persister writing Set-Cookie headers on w.
// logger may be nil.
func NewCookiePersister(w http.ResponseWriter, secure bool, logger *zap.Logger) *CookiePersister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CookiePersister{w: w, secure: secure, logger: logger, now: time.Now}
}

// Save writes items with a seven day expiry
func (p *CookiePersister) Save(items []Item) error {
	data, err := Encode(items)
	if err != nil {
		return err
	}
	value := url.PathEscape(string(data))
	if len(value) > CookieSizeWarn {
		p.logger.Warn("cart cookie may exceed browser size limit",
			zap.Int("bytes", len(value)), zap.Int("items", len(items)))
	}
	p.set(&http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  p.now().Add(CookieTTL),
		MaxAge:   int(CookieTTL.Seconds()),
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Remove expires the cookie
func (p *CookiePersister) Remove() error {
	p.set(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// set replaces any cart cookie already queued on the response
func (p *CookiePersister) set(c *http.Cookie) {
	header := p.w.Header()
	var kept []string
	for _, v := range header.Values("Set-Cookie") {
		if !strings.HasPrefix(v, CookieName+"=") {
			kept = append(kept, v)
		}
	}
	header.Del("Set-Cookie")
	for _, v := range kept {
		header.Add("Set-Cookie", v)
	}
	http.SetCookie(p.w, c)
}

// Load reads the cart cookie from r. A missing or unreadable cookie is an
// empty cart.
func Load(r *http.Request, logger *zap.Logger) []Item {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	raw, err := url.PathUnescape(c.Value)
	if err != nil {
		raw = c.Value
	}
	items, err := Decode([]byte(raw))
	if err != nil {
		if logger != nil {
			logger.Debug("ignoring unreadable cart cookie", zap.Error(err))
		}
		return nil
	}
	return items
}

// FromRequest hydrates a Store from r whose mutations are written back to w
func FromRequest(w http.ResponseWriter, r *http.Request, secure bool, logger *zap.Logger) *Store {
	return NewStore(NewCookiePersister(w, secure, logger), logger, Load(r, logger)...)
}
