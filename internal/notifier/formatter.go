package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"TokenBoard/internal/format"
	"TokenBoard/internal/model"
	"TokenBoard/internal/strategy"
)

var reactionEmoji = map[model.ReactionKind]string{
	model.ReactionRocket: "🚀",
	model.ReactionFire:   "🔥",
	model.ReactionPoop:   "💩",
}

// FormatDigest formats the top tokens of the board into a Telegram message.
func FormatDigest(tokens []model.Token, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>TokenBoard digest</b> | %s\n\n", at.Format("2006-01-02 15:04")))

	if len(tokens) == 0 {
		b.WriteString("The board is empty. Add a token to get started.")
		return b.String()
	}

	for i := range tokens {
		t := &tokens[i]
		score := strategy.Evaluate(t)
		pin := ""
		if t.Pinned {
			pin = "📌 "
		}
		b.WriteString(fmt.Sprintf("%d. %s<b>%s</b> %s  %s (%s)\n",
			i+1, pin, html.EscapeString(t.Symbol), format.Price(t.Price),
			format.SignedPercentage(t.Change24h), score.Tier.Label))
		b.WriteString(fmt.Sprintf("   MC %s · Vol %s · 👍 %d%s\n",
			format.Number(t.MarketCap), format.Number(t.Volume24h), t.Votes, formatReactions(t.Reactions)))
	}
	return b.String()
}

// FormatToken formats a single token with its trend score breakdown.
func FormatToken(t *model.Token) string {
	var b strings.Builder
	score := strategy.Evaluate(t)

	b.WriteString(fmt.Sprintf("🪙 <b>%s</b> (%s)\n", html.EscapeString(t.Name), html.EscapeString(t.Symbol)))
	b.WriteString(fmt.Sprintf("<code>%s</code>\n\n", t.Address))
	if t.Description != "" {
		b.WriteString(html.EscapeString(t.Description) + "\n\n")
	}
	b.WriteString(fmt.Sprintf("Price: %s (%s 24h)\n", format.Price(t.Price), format.SignedPercentage(t.Change24h)))
	b.WriteString(fmt.Sprintf("Market cap: $%s\n", format.Number(t.MarketCap)))
	b.WriteString(fmt.Sprintf("Volume 24h: $%s\n", format.Number(t.Volume24h)))
	b.WriteString(fmt.Sprintf("Votes: %d%s\n\n", t.Votes, formatReactions(t.Reactions)))

	b.WriteString("📈 <b>Trend score:</b>\n")
	for _, f := range score.Factors {
		b.WriteString(fmt.Sprintf("  %s(%s): %+.1f (×%.2f) = %+.3f\n",
			f.Name, html.EscapeString(f.Commentary), f.RawScore, f.Weight, f.Weighted))
	}
	b.WriteString("  ─────────────────\n")
	b.WriteString(fmt.Sprintf("  Total: %+.3f → %s\n", score.TotalScore, score.Tier.Label))
	return b.String()
}

// FormatChart summarizes chart data as text.
func FormatChart(symbol string, cd model.ChartData) string {
	if len(cd.Prices) == 0 || cd.Summary == nil {
		return fmt.Sprintf("No chart data available for %s.", html.EscapeString(symbol))
	}
	s := cd.Summary
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📉 <b>%s</b> · %s\n\n", html.EscapeString(symbol), cd.Timeframe))
	b.WriteString(fmt.Sprintf("Open: %s → Close: %s (%s)\n", format.Price(s.Open), format.Price(s.Close), format.SignedPercentage(s.ChangePercent)))
	b.WriteString(fmt.Sprintf("High: %s | Low: %s\n", format.Price(s.High), format.Price(s.Low)))
	b.WriteString(fmt.Sprintf("SMA20: %s | RSI14: %.0f\n", format.Price(s.SMA20), s.RSI14))
	b.WriteString(fmt.Sprintf("Points: %d", len(cd.Prices)))
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "Available commands:\n" +
		"• /top [n] top tokens by trend score\n" +
		"• /token &lt;address&gt; token details\n" +
		"• /chart &lt;address&gt; [24h|7d|30d|1y] chart summary\n" +
		"• /help this message"
}

func formatReactions(r map[model.ReactionKind]int) string {
	var b strings.Builder
	for _, k := range model.DefaultReactions {
		if n, ok := r[k]; ok {
			b.WriteString(fmt.Sprintf(" %s %d", reactionEmoji[k], n))
		}
	}
	for k, n := range r {
		if _, known := reactionEmoji[k]; !known {
			b.WriteString(fmt.Sprintf(" %s %d", k, n))
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return " ·" + b.String()
}
