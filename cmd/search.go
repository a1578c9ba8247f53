package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/openregulatory/regsearch/pkg/search"
)

// Define styles using lipgloss
var (
	resultTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("86"))

	resultMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	resultBodyStyle = lipgloss.NewStyle().
			Margin(0, 0, 1, 2)

	summaryLineStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("32")).
				Margin(1, 0, 0, 0)

	noResultsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the document cache",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "query",
				Usage: "Search query (supports AND, OR and \"quoted phrases\")",
			},
			&cli.StringSliceFlag{
				Name:  "type",
				Usage: "Filter by document type (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "publisher",
				Usage: "Filter by publisher key (repeatable)",
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Result order: recent or relevance",
				Value: search.SortRecent,
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Result page",
				Value: search.DefaultPage,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Results per page",
				Value: search.DefaultLimit,
			},
			&cli.StringFlag{
				Name:  "id",
				Usage: "Look up one document by id",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return searchDocuments(c)
		},
	}
}

func searchDocuments(c *cli.Command) error {
	_, store, err := loadConfigAndStore(c.String("config"))
	if err != nil {
		return err
	}
	defer store.Close()

	service := search.NewService(store)
	resp := service.Search(search.Request{
		Query:      c.String("query"),
		Types:      c.StringSlice("type"),
		Publishers: c.StringSlice("publisher"),
		Sort:       c.String("sort"),
		Page:       c.Int("page"),
		Limit:      c.Int("limit"),
		ID:         c.String("id"),
	})

	if resp.TotalCount == 0 {
		fmt.Println(noResultsStyle.Render("No documents found"))
		return nil
	}

	for i, result := range resp.Results {
		printResult(resp.StartIndex+i+1, result)
	}

	fmt.Println(summaryLineStyle.Render(fmt.Sprintf(
		"Showing %d-%d of %d documents (page %d of %d)",
		resp.StartIndex+1, resp.EndIndex, resp.TotalCount,
		resp.CurrentPage, resp.PageCount)))
	return nil
}

func printResult(position int, result search.Summary) {
	fmt.Printf("%d. %s\n", position, resultTitleStyle.Render(result.Title))

	meta := []string{result.TypeLabel}
	if result.Publisher != "" {
		meta = append(meta, result.Publisher)
	}
	if result.DateModified != "" {
		meta = append(meta, "modified "+result.DateModified)
	}
	fmt.Println("   " + resultMetaStyle.Render(strings.Join(meta, " | ")))

	var body strings.Builder
	if result.Description != "" {
		body.WriteString(result.Description)
	}
	if len(result.Topics) > 0 {
		if body.Len() > 0 {
			body.WriteString("\n")
		}
		body.WriteString("Topics: " + strings.Join(result.Topics, ", "))
	}
	for _, link := range result.RelatedLegislation {
		body.WriteString("\nRelated: " + link.Title + " <" + link.URL + ">")
	}
	if body.Len() > 0 {
		fmt.Println(resultBodyStyle.Render(body.String()))
	} else {
		fmt.Println()
	}
}
