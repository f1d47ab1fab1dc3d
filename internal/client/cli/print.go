package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/feedbackkit/internal/client/models"
	"github.com/dmitrijs2005/feedbackkit/internal/client/observers"
)

func printReleases(w io.Writer, c observers.ChangelogContent) {
	st := c.Releases
	if len(st.Items) == 0 {
		fmt.Fprintf(w, "%s\n%s\n", c.EmptyState.Title, c.EmptyState.Subtitle)
		return
	}

	fmt.Fprintln(w, c.Title)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tVERSION\tTYPE\tNAME\tRELEASED")
	for i, r := range st.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", i+1, r.ID, r.Version, r.Type, r.Name, r.CreatedAgo)
	}
	_ = tw.Flush()

	if st.KnownCount != nil && len(st.Items) < *st.KnownCount {
		fmt.Fprintf(w, "showing %d of %d, type 'more' for the next page\n", len(st.Items), *st.KnownCount)
	}
}

func printRelease(w io.Writer, r models.AppRelease) {
	fmt.Fprintf(w, "%s (%s)\n", r.Name, r.Version)
	if r.Description != nil && *r.Description != "" {
		fmt.Fprintln(w, *r.Description)
	}
	for _, s := range r.Sections {
		fmt.Fprintf(w, "\n%s\n", s.Title)
		for _, item := range s.Items {
			fmt.Fprintf(w, "  - %s\n", item.Ticket.Title)
		}
	}
}

func printTickets(w io.Writer, c observers.RoadmapContent) {
	for _, tab := range c.Tabs {
		marker := " "
		if tab.Key == c.SelectedTab {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s [%s]\n", marker, tab.Title, tab.Key)
	}

	st := c.Tickets
	if len(st.Items) == 0 {
		fmt.Fprintf(w, "%s\n%s\n", c.EmptyState.Title, c.EmptyState.Subtitle)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tVOTES\tTITLE")
	for _, t := range st.Items {
		votes := fmt.Sprint(t.VoteCount)
		if t.Voted {
			votes += " (you)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.StatusTitle, votes, t.Title)
	}
	_ = tw.Flush()
}
