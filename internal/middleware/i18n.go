package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/linhaiwebs/sync/internal/i18n"
)

type localeContextKey struct{}
type countryContextKey struct{}

var (
	LocaleKey  = localeContextKey{}
	CountryKey = countryContextKey{}
)

// LocaleCookie remembers an explicit ?lang= choice across page loads.
const LocaleCookie = "lang"

// chineseCountries are the country hints that select the zh locale.
var chineseCountries = map[string]struct{}{
	"CN": {}, "TW": {}, "HK": {}, "MO": {}, "SG": {},
}

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// I18N picks the dashboard locale for each request and stores it in the
// context. Precedence: ?lang, X-Locale, the lang cookie, Accept-Language,
// then the client's country.
func I18N(catalog *i18n.Catalog, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if lang := r.URL.Query().Get("lang"); lang != "" && catalog.Has(lang) {
				http.SetCookie(w, &http.Cookie{
					Name:     LocaleCookie,
					Value:    strings.ToLower(lang),
					Path:     "/",
					MaxAge:   int((365 * 24 * time.Hour).Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			var country string
			locale := explicitLocale(r, catalog)
			if locale == "" {
				if v, ok := catalog.Match(r.Header.Get("Accept-Language")); ok {
					locale = v
				}
			}
			if locale == "" {
				country = ResolveCountry(r, lookup)
				locale = localeForCountry(catalog, country)
			}
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, country)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func explicitLocale(r *http.Request, catalog *i18n.Catalog) string {
	candidates := []string{r.URL.Query().Get("lang"), r.Header.Get("X-Locale")}
	if c, err := r.Cookie(LocaleCookie); err == nil {
		candidates = append(candidates, c.Value)
	}
	for _, v := range candidates {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if catalog.Has(v) {
			return v
		}
		if matched, ok := catalog.Match(v); ok {
			return matched
		}
	}
	return ""
}

func localeForCountry(catalog *i18n.Catalog, country string) string {
	if _, ok := chineseCountries[country]; ok && catalog.Has("zh") {
		return "zh"
	}
	return catalog.Fallback()
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		if first := strings.TrimSpace(strings.Split(xf, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LocaleFromContext returns the negotiated locale code, "en" when unset.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok && v != "" {
		return v
	}
	return "en"
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}

// ResolveCountry resolves a best-effort ISO country code from CDN headers,
// falling back to the GeoIP lookup of the client address.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, key := range []string{"X-Country-Code", "CF-IPCountry", "X-Appengine-Country"} {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" && !strings.EqualFold(val, "XX") {
			return strings.ToUpper(val)
		}
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
	}
	return ""
}
