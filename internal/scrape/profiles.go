package scrape

import (
	"hash/fnv"
	"net/http"
)

// Profile is one browser identity: user agent plus the header set a real
// browser of that kind would send.
type Profile struct {
	Name           string
	UserAgent      string
	Accept         string
	AcceptLanguage string
	SecChUA        string // client hints; empty for browsers that omit them
	SecChUAMobile  string
	SecChUAPlat    string
	Mobile         bool
}

// profiles is the rotating identity set. Desktop Chrome first since it is
// the least remarkable identity on this target.
var profiles = []Profile{
	{
		Name:           "chrome-desktop",
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		AcceptLanguage: "en-US,en;q=0.9",
		SecChUA:        `"Not/A)Brand";v="8", "Chromium";v="126", "Google Chrome";v="126"`,
		SecChUAMobile:  "?0",
		SecChUAPlat:    `"Windows"`,
	},
	{
		Name:           "firefox-desktop",
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:127.0) Gecko/20100101 Firefox/127.0",
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		AcceptLanguage: "en-US,en;q=0.5",
	},
	{
		Name:           "safari-mobile",
		UserAgent:      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		AcceptLanguage: "en-US,en;q=0.9",
		Mobile:         true,
	},
	{
		Name:           "chrome-android",
		UserAgent:      "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Mobile Safari/537.36",
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		AcceptLanguage: "en-US,en;q=0.9",
		SecChUA:        `"Not/A)Brand";v="8", "Chromium";v="126", "Google Chrome";v="126"`,
		SecChUAMobile:  "?1",
		SecChUAPlat:    `"Android"`,
		Mobile:         true,
	},
}

// profileFor picks an identity deterministically from the query key so a
// repeated query presents the same browser. rotation moves to the next
// profile after a failed attempt.
func profileFor(key string, rotation int) Profile {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	idx := (int(h.Sum32()) + rotation) % len(profiles)
	if idx < 0 {
		idx += len(profiles)
	}
	return profiles[idx]
}

// apply sets the profile's headers on a request.
func (p Profile) apply(req *http.Request) {
	req.Header.Set("User-Agent", p.UserAgent)
	req.Header.Set("Accept", p.Accept)
	req.Header.Set("Accept-Language", p.AcceptLanguage)
	// Accept-Encoding is left to the transport so gzip bodies are
	// decompressed transparently.
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	if p.SecChUA != "" {
		req.Header.Set("Sec-Ch-Ua", p.SecChUA)
		req.Header.Set("Sec-Ch-Ua-Mobile", p.SecChUAMobile)
		req.Header.Set("Sec-Ch-Ua-Platform", p.SecChUAPlat)
		req.Header.Set("Sec-Fetch-Dest", "document")
		req.Header.Set("Sec-Fetch-Mode", "navigate")
		req.Header.Set("Sec-Fetch-Site", "same-origin")
	}
}
