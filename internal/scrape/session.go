package scrape

import (
	"net/http"
)

// Session carries cookies and the referrer chain accumulated across one
// resolution. It is threaded through the pipeline by value semantics and
// never stored process-wide.
type Session struct {
	Cookies []*http.Cookie
	Referer string
}

// apply attaches the session's cookies and referrer to a request.
func (s *Session) apply(req *http.Request) {
	for _, c := range s.Cookies {
		req.AddCookie(c)
	}
	if s.Referer != "" {
		req.Header.Set("Referer", s.Referer)
	}
}

// absorb merges Set-Cookie headers from a response into the session,
// replacing cookies by name, and records the request URL as the next
// referrer.
func (s *Session) absorb(resp *http.Response, requestURL string) {
	for _, c := range resp.Cookies() {
		replaced := false
		for i, existing := range s.Cookies {
			if existing.Name == c.Name {
				s.Cookies[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			s.Cookies = append(s.Cookies, c)
		}
	}
	s.Referer = requestURL
}
