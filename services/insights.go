package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gmaps-scraper/models"
	"gmaps-scraper/utils"
)

const sampleSize = 10

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(records []models.ListingRecord) *models.Summary {
	summary := &models.Summary{
		ByDescription: make(map[string]int),
	}

	if len(records) == 0 {
		return summary
	}

	summary.TotalRecords = len(records)

	for _, r := range records {
		if models.Has(r.Phone) {
			summary.WithPhone++
		}
		if models.Has(r.Site) {
			summary.WithSite++
		}
		if models.Has(r.Address) {
			summary.WithAddress++
		}
		if models.Has(r.Description) {
			summary.ByDescription[CleanCell(r.Description)]++
		}
	}

	if len(records) > sampleSize {
		summary.Sample = records[:sampleSize]
	} else {
		summary.Sample = records
	}

	s.logger.Debug("[insights] %d records, %d categories", summary.TotalRecords, len(summary.ByDescription))
	return summary
}

func (s *InsightService) Print(w io.Writer, r *models.Summary) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📍 MAP LISTINGS SUMMARY\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total unique stores found : \033[1m%d\033[0m\n", r.TotalRecords)
	fmt.Fprintf(w, "  With phone                : \033[1m%d\033[0m\n", r.WithPhone)
	fmt.Fprintf(w, "  With website              : \033[1m%d\033[0m\n", r.WithSite)
	fmt.Fprintf(w, "  With address              : \033[1m%d\033[0m\n", r.WithAddress)
	fmt.Fprintln(w)

	// Listings by category
	fmt.Fprintf(w, "\033[1;33m  Listings by Category\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ByDescription) == 0 {
		fmt.Fprintf(w, "  No category data\n")
	} else {
		type catCount struct {
			cat   string
			count int
		}
		var cats []catCount
		for cat, cnt := range r.ByDescription {
			cats = append(cats, catCount{cat, cnt})
		}
		sort.Slice(cats, func(i, j int) bool {
			if cats[i].count != cats[j].count {
				return cats[i].count > cats[j].count
			}
			return cats[i].cat < cats[j].cat
		})
		for _, cc := range cats {
			bar := strings.Repeat("█", cc.count)
			fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(cc.cat, 28), bar, cc.count)
		}
	}
	fmt.Fprintln(w)

	// ── FIRST RECORDS ────────────────────────────────────────────────────
	for _, rec := range r.Sample {
		fmt.Fprintf(w, "  Name: %s\n", rec.Name)
		fmt.Fprintf(w, "  Address: %s\n", rec.Address)
		fmt.Fprintf(w, "  Phone: %s\n", rec.Phone)
		fmt.Fprintf(w, "  Site: %s\n", rec.Site)
		fmt.Fprintf(w, "  Description: %s\n", rec.Description)
		fmt.Fprintf(w, "  %s\n", strings.Repeat("-", 50))
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// truncate shortens s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
