// Package sniffer discovers stream manifest URLs by loading an embed page in
// an isolated headless browser session and watching its outbound requests.
//
// A Sniffer installs a request observer before navigation, records the first
// request whose URL ends in the manifest suffix, aborts image, stylesheet and
// font requests, and then polls briefly for a detection. Navigation failures
// only end the navigation phase; polling still runs and the session is always
// closed. RodBrowser is the Chromium backend, built on go-rod.
package sniffer
