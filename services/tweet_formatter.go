package services

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/fenilmodi00/market-snapshot-bot/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	MaxTweetLength      = 280
	truncationThreshold = 275
	ellipsis            = "..."
	maxIndicesInTweet   = 3

	headerLabel = "🏛️ Live Market Update at"
	hashtagLine = "#Nifty50 #Sensex #MarketWatch"

	arrowUp   = "▲"
	arrowDown = "▼"
)

// TweetFormatter renders a market snapshot as post text
type TweetFormatter struct {
	location *time.Location
	printer  *message.Printer
	logger   *logrus.Entry
}

// NewTweetFormatter creates a formatter rendering times in loc and numbers in the en-IN locale
func NewTweetFormatter(loc *time.Location) *TweetFormatter {
	if loc == nil {
		loc = time.UTC
	}
	return &TweetFormatter{
		location: loc,
		printer:  message.NewPrinter(language.MustParse("en-IN")),
		logger:   logrus.WithField("component", "TweetFormatter"),
	}
}

// FormatMarketSnapshot builds the post text for snapshot as of now. The result
// is never empty and never longer than MaxTweetLength UTF-16 code units.
func (f *TweetFormatter) FormatMarketSnapshot(snapshot *models.MarketSnapshot, now time.Time) string {
	if snapshot == nil {
		snapshot = &models.MarketSnapshot{}
	}

	lines := make([]string, 0, 12)
	lines = append(lines, fmt.Sprintf("%s %s", headerLabel, now.In(f.location).Format("15:04 MST")))
	lines = append(lines, "")

	indices := snapshot.Indices
	if len(indices) > maxIndicesInTweet {
		indices = indices[:maxIndicesInTweet]
	}
	for _, index := range indices {
		lines = append(lines, f.indexLine(index))
	}

	lines = append(lines, "")

	if len(snapshot.TopGainers) > 0 {
		gainer := snapshot.TopGainers[0]
		lines = append(lines, fmt.Sprintf("📈 Top Gainer: %s %s %s%%", gainer.ShortName, arrowUp, percent(gainer.PercentChange)))
	}

	if len(snapshot.TopLosers) > 0 {
		loser := snapshot.TopLosers[0]
		lines = append(lines, fmt.Sprintf("📉 Top Loser: %s %s %s%%", loser.ShortName, arrowDown, percent(loser.PercentChange)))
	}

	lines = append(lines, "", hashtagLine)

	tweet := strings.Join(lines, "\n")
	length := TweetLength(tweet)
	f.logger.WithField("length", length).Debug("Tweet formatted")

	if length > MaxTweetLength {
		f.logger.WithField("original_length", length).Warn("Tweet exceeds 280 characters, truncating")
		return TruncateTweet(tweet)
	}

	f.logger.WithField("content", tweet).Info("Tweet ready to post")
	return tweet
}

func (f *TweetFormatter) indexLine(index models.IndexPoint) string {
	arrow := arrowUp
	if !index.IsPositive() {
		arrow = arrowDown
	}
	sign := "+"
	if index.PercentChange < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s %s: %s %s %s%s%%",
		IndexSymbol(index.Name), index.Name, f.formatNumber(index.Value), arrow, sign, percent(index.PercentChange))
}

func (f *TweetFormatter) formatNumber(value float64) string {
	return f.printer.Sprintf("%v", number.Decimal(value, number.MaxFractionDigits(2)))
}

// IndexSymbol picks the emoji shown in front of an index name
func IndexSymbol(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "nifty"):
		return "🇮🇳"
	case strings.Contains(lower, "sensex"):
		return "🇮🇳"
	case strings.Contains(lower, "bank"):
		return "🏦"
	default:
		return "📈"
	}
}

func percent(value float64) string {
	return fmt.Sprintf("%.2f", math.Abs(value))
}

// TweetLength counts UTF-16 code units, so an astral-plane emoji counts as two
func TweetLength(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// TruncateTweet keeps whole lines while the running text plus a newline stays
// within 275 units, then appends an ellipsis
func TruncateTweet(tweet string) string {
	var result strings.Builder
	length := 0

	for _, line := range strings.Split(tweet, "\n") {
		lineLength := TweetLength(line) + 1
		if length+lineLength > truncationThreshold {
			break
		}
		result.WriteString(line)
		result.WriteString("\n")
		length += lineLength
	}

	truncated := strings.TrimSpace(result.String()) + ellipsis
	return clampLength(truncated, MaxTweetLength)
}

func clampLength(s string, limit int) string {
	if TweetLength(s) <= limit {
		return s
	}

	runes := []rune(s)
	for len(runes) > 0 && TweetLength(string(runes)+ellipsis) > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + ellipsis
}
