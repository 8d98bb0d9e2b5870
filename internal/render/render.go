// Package render draws the conversation in a terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/soyeahso/sumai/internal/domain"
	"github.com/soyeahso/sumai/internal/store"
	"github.com/soyeahso/sumai/internal/view"
)

const barWidth = 10

var (
	userStyle      = color.New(color.FgCyan, color.Bold)
	assistantStyle = color.New(color.FgGreen, color.Bold)
	noticeStyle    = color.New(color.FgYellow)
	dimStyle       = color.New(color.Faint)
	titleStyle     = color.New(color.Bold)
	linkStyle      = color.New(color.FgBlue, color.Underline)
)

var bandStyles = map[string]*color.Color{
	view.BandExcellent.Name: color.New(color.FgGreen, color.Bold),
	view.BandGood.Name:      color.New(color.FgBlue, color.Bold),
	view.BandFair.Name:      color.New(color.FgYellow),
	view.BandLow.Name:       color.New(color.FgHiBlack),
}

// Renderer writes conversation output. Calls are serialized so output from
// the turn goroutine and the prompt loop never interleaves mid-line.
type Renderer struct {
	mu sync.Mutex
	w  io.Writer
}

// New creates a renderer writing to w.
func New(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

func (r *Renderer) printf(format string, a ...any) {
	fmt.Fprintf(r.w, format, a...)
}

// Message prints one log entry.
func (r *Renderer) Message(msg domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	label := assistantStyle.Sprint("アシスタント")
	if msg.Role == domain.RoleUser {
		label = userStyle.Sprint("あなた")
	}
	r.printf("%s %s\n", label, dimStyle.Sprint(msg.CreatedAt.Format("15:04")))
	for _, line := range strings.Split(msg.Text, "\n") {
		r.printf("  %s\n", line)
	}
	r.printf("\n")
}

// Notice prints a local, non-log notice.
func (r *Renderer) Notice(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printf("%s\n", noticeStyle.Sprint("! "+text))
}

// Waiting prints the in-flight indicator.
func (r *Renderer) Waiting(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	text := "検索中..."
	if kind == "upload" {
		text = "PDFを解析中..."
	}
	r.printf("%s\n", dimStyle.Sprint(text))
}

// Stats prints the property count line. The filtered count wins over the
// total once a turn has reported one.
func (r *Renderer) Stats(s domain.Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := s.Displayed()
	if !ok {
		return
	}
	label := "登録物件数"
	if s.Filtered != nil {
		label = "条件に合う物件"
	}
	r.printf("%s %s件\n", dimStyle.Sprint(label+":"), titleStyle.Sprint(view.Count(n)))
}

// Recommendations prints the ranked cards; the card at expanded (if open)
// includes its dimension breakdown.
func (r *Renderer) Recommendations(recs []domain.Recommendation, exp *view.Expander) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(recs) == 0 {
		return
	}
	r.printf("%s\n", titleStyle.Sprintf("おすすめ物件 (%d件)", len(recs)))
	for i, c := range view.Cards(recs) {
		r.card(c, exp != nil && exp.IsExpanded(i))
	}
}

func (r *Renderer) card(c view.Card, expanded bool) {
	style := bandStyles[c.Band.Name]
	r.printf("%s %s  %s\n",
		titleStyle.Sprintf("[%d]", c.Rank),
		titleStyle.Sprint(c.Title),
		style.Sprintf("%d%% %s", c.Percent, c.Band.Label),
	)

	details := []string{c.Price, c.Layout, c.Area, c.Age, c.WalkTime}
	if c.Station != "" {
		details = append(details, c.Station+"駅")
	}
	r.printf("    %s\n", strings.Join(details, " / "))
	r.printf("    %s\n", dimStyle.Sprint(c.Reason))
	if len(c.Tags) > 0 {
		r.printf("    %s\n", dimStyle.Sprint("#"+strings.Join(c.Tags, " #")))
	}

	if expanded {
		for _, b := range c.Bars {
			r.printf("    %s %s %3d%%\n", padLabel(b.Label), bar(b.Score, style), b.Percent)
		}
		if c.URL != "" {
			r.printf("    %s\n", linkStyle.Sprint(c.URL))
		}
	}
	r.printf("\n")
}

// padLabel pads a label to a fixed display width; the labels are full-width
// characters, two columns each.
func padLabel(label string) string {
	const width = 8
	cols := 0
	for _, ch := range label {
		if ch < 0x80 {
			cols++
		} else {
			cols += 2
		}
	}
	if cols >= width {
		return label
	}
	return label + strings.Repeat(" ", width-cols)
}

func bar(score float64, style *color.Color) string {
	filled := int(view.Clamp(score)*barWidth + 0.5)
	return style.Sprint(strings.Repeat("█", filled)) + dimStyle.Sprint(strings.Repeat("░", barWidth-filled))
}

// Turns prints journaled turns, newest first.
func (r *Renderer) Turns(recs []store.TurnRecord, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(recs) == 0 {
		r.printf("%s\n", dimStyle.Sprint("まだやり取りはありません"))
		return
	}
	for _, t := range recs {
		line := fmt.Sprintf("%-7s %-9s %6s  %s", t.Kind, t.Outcome,
			t.Duration.Round(10*time.Millisecond), humanize.RelTime(t.StartedAt, now, "ago", "from now"))
		if t.Recommendations > 0 {
			line += fmt.Sprintf("  %d件", t.Recommendations)
		}
		if t.Error != "" {
			line += "  " + noticeStyle.Sprint(t.Error)
		}
		r.printf("%s\n", line)
	}
}

// Help prints the REPL command list.
func (r *Renderer) Help() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cmds := [][2]string{
		{"/upload <path>", "PDFをアップロード"},
		{"/open <n>", "n件目の詳細を開く・閉じる"},
		{"/dismiss", "おすすめ物件を閉じる"},
		{"/new", "新しい会話を始める"},
		{"/stats", "物件数を再取得"},
		{"/turns", "最近のやり取り"},
		{"/help", "このヘルプ"},
		{"/quit", "終了"},
	}
	for _, c := range cmds {
		r.printf("  %-16s %s\n", c[0], dimStyle.Sprint(c[1]))
	}
	r.printf("  %s\n", dimStyle.Sprint("PDFファイルをドラッグ&ドロップしてもアップロードできます"))
}
