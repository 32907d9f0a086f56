package engine

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceTypes maps config names to CDP resource types.
var resourceTypes = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
	"Script":     proto.NetworkResourceTypeScript,
}

// trackerHosts are ad and analytics hosts commonly embedded in grocery
// search pages. None of them serve listing markup.
var trackerHosts = map[string]struct{}{
	"doubleclick.net":       {},
	"googlesyndication.com": {},
	"googleadservices.com":  {},
	"google-analytics.com":  {},
	"googletagmanager.com":  {},
	"facebook.net":          {},
	"adnxs.com":             {},
	"criteo.com":            {},
	"criteo.net":            {},
	"hotjar.com":            {},
	"mixpanel.com":          {},
	"segment.io":            {},
	"quantserve.com":        {},
	"scorecardresearch.com": {},
	"optimizely.com":        {},
	"demdex.net":            {},
	"omtrdc.net":            {},
	"adobedtm.com":          {},
	"qualtrics.com":         {},
	"bing.com":              {},
	"tiktok.com":            {},
	"pinterest.com":         {},
}

// isTrackerHost checks host and each parent domain against trackerHosts.
func isTrackerHost(host string) bool {
	host = strings.ToLower(host)
	for {
		if _, ok := trackerHosts[host]; ok {
			return true
		}
		idx := strings.IndexByte(host, '.')
		if idx < 0 {
			return false
		}
		host = host[idx+1:]
	}
}

// blockedTypeSet resolves config names, ignoring unknown ones.
func blockedTypeSet(names []string) map[proto.NetworkResourceType]struct{} {
	blocked := make(map[proto.NetworkResourceType]struct{}, len(names))
	for _, name := range names {
		if rt, ok := resourceTypes[name]; ok {
			blocked[rt] = struct{}{}
		}
	}
	return blocked
}

// setupHijack installs a request interceptor on the page that fails
// blocked resource types and, optionally, tracker requests.
//
// Returns nil if there is nothing to block; otherwise the caller must
// Stop the returned router.
func setupHijack(page *rod.Page, blockedTypes []string, blockTrackers bool) *rod.HijackRouter {
	blocked := blockedTypeSet(blockedTypes)
	if len(blocked) == 0 && !blockTrackers {
		return nil
	}

	router := page.HijackRequests()

	// Pattern "*" + empty resourceType = intercept ALL requests, then
	// decide per-request whether to block or continue.
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if _, shouldBlock := blocked[ctx.Request.Type()]; shouldBlock {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}

		if blockTrackers {
			if u, err := url.Parse(ctx.Request.URL().String()); err == nil && isTrackerHost(u.Hostname()) {
				ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
		}

		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run() blocks until router.Stop().
	go router.Run()

	return router
}
