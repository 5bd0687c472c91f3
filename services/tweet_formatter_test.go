package services

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/fenilmodi00/market-snapshot-bot/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var testIST = time.FixedZone("IST", 5*3600+30*60)

func testNow() time.Time {
	return time.Date(2024, time.March, 4, 10, 30, 0, 0, testIST)
}

const testHeader = "🏛️ Live Market Update at 10:30 IST"

func TestFormatMarketSnapshot_IndexAndGainer(t *testing.T) {
	formatter := NewTweetFormatter(testIST)
	snapshot := &models.MarketSnapshot{
		IsMarketOpen: true,
		Indices: []models.IndexPoint{
			{Name: "NIFTY 50", Value: 22000.5, NetChange: 50.25, PercentChange: 0.23},
		},
		TopGainers: []models.Mover{
			{ShortName: "TCS", PercentChange: 3.1},
		},
	}

	got := formatter.FormatMarketSnapshot(snapshot, testNow())

	want := strings.Join([]string{
		testHeader,
		"",
		"🇮🇳 NIFTY 50: 22,000.5 ▲ +0.23%",
		"",
		"📈 Top Gainer: TCS ▲ 3.10%",
		"",
		"#Nifty50 #Sensex #MarketWatch",
	}, "\n")
	if got != want {
		t.Errorf("tweet mismatch\n got: %q\nwant: %q", got, want)
	}
	if strings.Contains(got, "Top Loser") {
		t.Error("tweet should not carry a loser line without losers")
	}
}

func TestFormatMarketSnapshot_NegativeIndexAndLoser(t *testing.T) {
	formatter := NewTweetFormatter(testIST)
	snapshot := &models.MarketSnapshot{
		Indices: []models.IndexPoint{
			{Name: "S&P BSE BANKEX", Value: 45892.35, NetChange: -89.45, PercentChange: -0.19},
		},
		TopLosers: []models.Mover{
			{ShortName: "INFY", PercentChange: -2.5},
		},
	}

	got := formatter.FormatMarketSnapshot(snapshot, testNow())

	if !strings.Contains(got, "🏦 S&P BSE BANKEX: 45,892.35 ▼ -0.19%") {
		t.Errorf("missing negative index line in %q", got)
	}
	if !strings.Contains(got, "📉 Top Loser: INFY ▼ 2.50%") {
		t.Errorf("missing loser line in %q", got)
	}
	if strings.Contains(got, "Top Gainer") {
		t.Error("tweet should not carry a gainer line without gainers")
	}
}

func TestFormatMarketSnapshot_AtMostThreeIndices(t *testing.T) {
	formatter := NewTweetFormatter(testIST)
	snapshot := &models.MarketSnapshot{
		Indices: []models.IndexPoint{
			{Name: "NIFTY 50", Value: 1},
			{Name: "SENSEX", Value: 2},
			{Name: "NIFTY BANK", Value: 3},
			{Name: "FINNIFTY", Value: 4},
		},
	}

	got := formatter.FormatMarketSnapshot(snapshot, testNow())
	if strings.Contains(got, "FINNIFTY") {
		t.Errorf("fourth index rendered in %q", got)
	}
	if !strings.Contains(got, "NIFTY BANK") {
		t.Errorf("third index missing in %q", got)
	}
}

func TestFormatMarketSnapshot_EmptySnapshot(t *testing.T) {
	formatter := NewTweetFormatter(testIST)

	for name, snapshot := range map[string]*models.MarketSnapshot{
		"nil":   nil,
		"empty": {},
	} {
		got := formatter.FormatMarketSnapshot(snapshot, testNow())
		if !strings.HasPrefix(got, testHeader) {
			t.Errorf("%s: missing header in %q", name, got)
		}
		if !strings.HasSuffix(got, "#Nifty50 #Sensex #MarketWatch") {
			t.Errorf("%s: missing hashtags in %q", name, got)
		}
	}
}

func TestFormatMarketSnapshot_HeaderUsesFormatterZone(t *testing.T) {
	formatter := NewTweetFormatter(testIST)
	utc := time.Date(2024, time.March, 4, 5, 0, 0, 0, time.UTC)

	got := formatter.FormatMarketSnapshot(&models.MarketSnapshot{}, utc)
	if !strings.HasPrefix(got, "🏛️ Live Market Update at 10:30 IST") {
		t.Errorf("header not rendered in IST: %q", got)
	}
}

func TestFormatMarketSnapshot_TruncatesLongContent(t *testing.T) {
	formatter := NewTweetFormatter(testIST)
	long := strings.Repeat("A", 100)
	snapshot := &models.MarketSnapshot{
		Indices: []models.IndexPoint{
			{Name: long, Value: 1},
			{Name: long, Value: 2},
			{Name: long, Value: 3},
		},
		TopGainers: []models.Mover{{ShortName: "TCS", PercentChange: 1}},
	}

	got := formatter.FormatMarketSnapshot(snapshot, testNow())

	if TweetLength(got) > MaxTweetLength {
		t.Errorf("length %d exceeds %d", TweetLength(got), MaxTweetLength)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated tweet should end with an ellipsis: %q", got)
	}
	if !strings.HasPrefix(got, testHeader) {
		t.Errorf("truncated tweet lost its header: %q", got)
	}
	if strings.Contains(got, "#Nifty50") {
		t.Errorf("hashtags should have been cut: %q", got)
	}
}

func TestTruncateTweet_KeepsWholeLines(t *testing.T) {
	a := strings.Repeat("a", 100)
	b := strings.Repeat("b", 100)
	c := strings.Repeat("c", 100)

	got := TruncateTweet(a + "\n" + b + "\n" + c)
	want := a + "\n" + b + "..."
	if got != want {
		t.Errorf("TruncateTweet = %q, want %q", got, want)
	}
}

func TestTruncateTweet_FirstLineTooLong(t *testing.T) {
	got := TruncateTweet(strings.Repeat("x", 400))
	if got != "..." {
		t.Errorf("TruncateTweet = %q, want ellipsis only", got)
	}
}

func TestTweetLength_CountsUTF16Units(t *testing.T) {
	cases := map[string]int{
		"":        0,
		"abc":     3,
		"▲":       1,
		"📈":       2,
		"🇮🇳":      4,
		"🏛️":      3,
		"TCS ▲ 1": 7,
	}
	for input, want := range cases {
		if got := TweetLength(input); got != want {
			t.Errorf("TweetLength(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestIndexSymbol(t *testing.T) {
	cases := map[string]string{
		"NIFTY 50":       "🇮🇳",
		"Nifty Bank":     "🇮🇳",
		"S&P BSE SENSEX": "🇮🇳",
		"BANKEX":         "🏦",
		"INDIA VIX":      "📈",
	}
	for name, want := range cases {
		if got := IndexSymbol(name); got != want {
			t.Errorf("IndexSymbol(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestTweetFormatterProperties(t *testing.T) {
	formatter := NewTweetFormatter(testIST)
	properties := gopter.NewProperties(nil)

	properties.Property("formatted tweets never exceed 280 units and always start with the header", prop.ForAll(
		func(name, gainer, loser string, copies int, value, change float64) bool {
			snapshot := &models.MarketSnapshot{
				TopGainers: []models.Mover{{ShortName: gainer, PercentChange: change}},
				TopLosers:  []models.Mover{{ShortName: loser, PercentChange: -change}},
			}
			for i := 0; i < copies; i++ {
				snapshot.Indices = append(snapshot.Indices, models.IndexPoint{
					Name: name, Value: value, NetChange: change, PercentChange: change,
				})
			}

			got := formatter.FormatMarketSnapshot(snapshot, testNow())
			if TweetLength(got) > MaxTweetLength {
				t.Logf("length %d for %q", TweetLength(got), got)
				return false
			}
			return strings.HasPrefix(got, testHeader)
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
		gen.IntRange(0, 6),
		gen.Float64Range(0, 1000000),
		gen.Float64Range(-100, 100),
	))

	properties.Property("index lines carry an arrow and sign matching the change", prop.ForAll(
		func(value, netChange, pct float64) bool {
			snapshot := &models.MarketSnapshot{
				Indices: []models.IndexPoint{{Name: "NIFTY 50", Value: value, NetChange: netChange, PercentChange: pct}},
			}
			line := strings.Split(formatter.FormatMarketSnapshot(snapshot, testNow()), "\n")[2]

			arrow := "▲"
			if netChange < 0 {
				arrow = "▼"
			}
			sign := "+"
			if pct < 0 {
				sign = "-"
			}
			suffix := fmt.Sprintf(" %s %s%.2f%%", arrow, sign, math.Abs(pct))
			if !strings.HasSuffix(line, suffix) {
				t.Logf("line %q does not end with %q", line, suffix)
				return false
			}
			return true
		},
		gen.Float64Range(0, 100000),
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-50, 50),
	))

	properties.Property("mover lines show the magnitude without a sign", prop.ForAll(
		func(gain, loss float64) bool {
			snapshot := &models.MarketSnapshot{
				TopGainers: []models.Mover{{ShortName: "TCS", PercentChange: gain}},
				TopLosers:  []models.Mover{{ShortName: "INFY", PercentChange: loss}},
			}
			got := formatter.FormatMarketSnapshot(snapshot, testNow())

			wantGainer := fmt.Sprintf("📈 Top Gainer: TCS ▲ %.2f%%", math.Abs(gain))
			wantLoser := fmt.Sprintf("📉 Top Loser: INFY ▼ %.2f%%", math.Abs(loss))
			return strings.Contains(got, wantGainer) && strings.Contains(got, wantLoser)
		},
		gen.Float64Range(-20, 20),
		gen.Float64Range(-20, 20),
	))

	properties.Property("short tweets are never truncated", prop.ForAll(
		func(pct float64) bool {
			snapshot := &models.MarketSnapshot{
				Indices: []models.IndexPoint{{Name: "NIFTY 50", Value: 22000, PercentChange: pct}},
			}
			got := formatter.FormatMarketSnapshot(snapshot, testNow())
			return !strings.HasSuffix(got, "...") && strings.HasSuffix(got, "#Nifty50 #Sensex #MarketWatch")
		},
		gen.Float64Range(-10, 10),
	))

	properties.TestingRun(t)
}
