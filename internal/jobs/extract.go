// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"time"

	"github.com/utawakulab/utacatalog/internal/catalog"
	"github.com/utawakulab/utacatalog/internal/confidence"
	"github.com/utawakulab/utacatalog/internal/genre"
	"github.com/utawakulab/utacatalog/internal/setlist"
	"github.com/utawakulab/utacatalog/internal/youtube"
)

// jst fixes stream dates to the audience's timezone regardless of where
// the harvester runs.
var jst = time.FixedZone("JST", 9*60*60)

// extraction is the per-video outcome of the parse-select-score stages.
type extraction struct {
	Rows       []catalog.Row
	Confidence float64
	OriginTag  string // empty when no setlist was selected
}

// extractVideo runs one video through candidate extraction, selection,
// confidence scoring and genre classification. A video without a viable
// setlist still gets scored for diagnostics but yields no rows.
func extractVideo(ctx context.Context, video youtube.Video, comments []youtube.Comment, classifier *genre.Classifier, weights confidence.Weights) extraction {
	var description *setlist.Candidate
	if c := setlist.NewCandidate(setlist.Origin{Kind: setlist.OriginDescription}, video.Description); len(c.Lines) > 0 {
		description = &c
	}

	commentTexts := make([]string, 0, len(comments))
	candidates := make([]setlist.Candidate, 0, len(comments))
	for i, cm := range comments {
		commentTexts = append(commentTexts, cm.Text)
		c := setlist.NewCandidate(setlist.Origin{
			Kind:         setlist.OriginComment,
			CommentIndex: i,
			LikeCount:    cm.LikeCount,
			PublishedAt:  cm.PublishedAt,
		}, cm.Text)
		if len(c.Lines) >= 3 {
			candidates = append(candidates, c)
		}
	}

	selected := setlist.Select(description, candidates)

	var lines []setlist.Line
	if selected != nil {
		lines = selected.Lines
	}
	score := confidence.Score(confidence.Signals{
		Title:              video.Title,
		Description:        video.Description,
		DurationS:          int64(video.DurationS),
		Selected:           lines,
		CommentAnchorLines: setlist.AnchorLineCount(commentTexts...),
	}, weights)

	out := extraction{Confidence: score}
	if selected == nil {
		return out
	}
	out.OriginTag = selected.Origin.Tag()

	streamDate := video.PublishedAt.In(jst).Format("2006-01-02")
	out.Rows = make([]catalog.Row, 0, len(selected.Lines))
	for _, line := range selected.Lines {
		out.Rows = append(out.Rows, catalog.Row{
			Song:           line.Song,
			Artist:         line.Artist,
			NormalizedSong: catalog.NormalizeTitle(line.Song),
			Genre:          classifier.Classify(ctx, line.Artist, line.Song),
			OffsetS:        line.OffsetS,
			StreamDate:     streamDate,
			VideoID:        video.ID,
			ChannelID:      video.ChannelID,
			Confidence:     score,
		})
	}
	return out
}
