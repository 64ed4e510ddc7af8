package useragent

import (
	"fmt"
	"os"
	"strings"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

// Browser, OS and device labels stored on clicks.
const (
	BrowserFirefox = "Firefox"
	BrowserEdge    = "Edge"
	BrowserChrome  = "Chrome"
	BrowserSafari  = "Safari"
	BrowserIE      = "IE"

	OSWindows = "Windows"
	OSAndroid = "Android"
	OSiOS     = "iOS"
	OSMacOS   = "MacOS"
	OSLinux   = "Linux"

	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceDesktop = "Desktop"

	Other = "Other"
)

type rule struct {
	label   string
	needles []string
}

// Rules are evaluated top to bottom and the first hit wins. Edge and Chromium
// share the "Chrome" token, Android and iOS carry "Linux" and "Mac OS X".
var (
	browserRules = []rule{
		{BrowserFirefox, []string{"Firefox", "FxiOS"}},
		{BrowserEdge, []string{"Edg"}},
		{BrowserChrome, []string{"Chrome", "CriOS"}},
		{BrowserSafari, []string{"Safari"}},
		{BrowserIE, []string{"MSIE", "Trident"}},
	}
	osRules = []rule{
		{OSWindows, []string{"Windows"}},
		{OSAndroid, []string{"Android"}},
		{OSiOS, []string{"iPhone", "iPad", "iPod"}},
		{OSMacOS, []string{"Macintosh", "Mac OS"}},
		{OSLinux, []string{"Linux", "X11"}},
	}
	deviceRules = []rule{
		{DeviceTablet, []string{"iPad", "Tablet"}},
		{DeviceMobile, []string{"Mobi", "iPhone", "Android"}},
	}
)

var botIndicators = []string{
	"bot", "crawler", "spider", "scraper", "slurp",
	"facebookexternalhit", "whatsapp", "telegram", "skypeuripreview",
}

// Classification is what a click stores about its client.
type Classification struct {
	Browser string
	OS      string
	Device  string
	IsBot   bool
}

// Parser classifies User-Agent strings. Browser, OS and device come from
// ordered substring rules, the bot flag from uap-go.
type Parser struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

// NewParser creates a parser from a uap-core regexes file.
func NewParser(regexFilePath string, log *zap.Logger) (*Parser, error) {
	regexBytes, err := os.ReadFile(regexFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read regexes file: %w", err)
	}

	parser, err := uaparser.NewFromBytes(regexBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create User-Agent parser: %w", err)
	}

	log.Info("User-Agent parser initialized", zap.String("regexes_file", regexFilePath))

	return &Parser{parser: parser, log: log}, nil
}

// NewDefault creates a parser from the definitions bundled with uap-go.
func NewDefault(log *zap.Logger) *Parser {
	return &Parser{parser: uaparser.NewFromSaved(), log: log}
}

// Classify derives browser, OS, device and the bot flag from a User-Agent.
func (p *Parser) Classify(userAgent string) Classification {
	c := Classification{
		Browser: ClassifyBrowser(userAgent),
		OS:      ClassifyOS(userAgent),
		Device:  ClassifyDevice(userAgent),
		IsBot:   p.isBot(userAgent),
	}

	p.log.Debug("classified User-Agent",
		zap.String("browser", c.Browser),
		zap.String("os", c.OS),
		zap.String("device", c.Device),
		zap.Bool("is_bot", c.IsBot),
	)

	return c
}

func (p *Parser) isBot(userAgent string) bool {
	if userAgent == "" {
		return false
	}

	if p.parser != nil {
		client := p.parser.Parse(userAgent)
		if client.Device != nil && client.Device.Family == "Spider" {
			return true
		}
	}

	lower := strings.ToLower(userAgent)
	for _, indicator := range botIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// ClassifyBrowser returns Firefox, Edge, Chrome, Safari, IE or Other.
func ClassifyBrowser(userAgent string) string {
	return firstMatch(browserRules, userAgent, Other)
}

// ClassifyOS returns Windows, Android, iOS, MacOS, Linux or Other.
func ClassifyOS(userAgent string) string {
	return firstMatch(osRules, userAgent, Other)
}

// ClassifyDevice returns Tablet, Mobile or Desktop.
func ClassifyDevice(userAgent string) string {
	return firstMatch(deviceRules, userAgent, DeviceDesktop)
}

func firstMatch(rules []rule, userAgent, fallback string) string {
	for _, r := range rules {
		for _, needle := range r.needles {
			if strings.Contains(userAgent, needle) {
				return r.label
			}
		}
	}
	return fallback
}
