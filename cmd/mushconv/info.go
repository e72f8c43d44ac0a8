package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
)

func infoCmd(a *app) *cobra.Command {
	var (
		storePath string
		players   bool
		rooms     bool
		attrStats bool
		refText   string
	)
	cmd := &cobra.Command{
		Use:   "info [flatfile]",
		Short: "Summarize a flatfile or stored snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.input(args, storePath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printSummary(out, snap)
			if players {
				fmt.Fprintln(out)
				printPlayers(out, snap)
			}
			if rooms {
				fmt.Fprintln(out)
				printRooms(out, snap)
			}
			if refText != "" {
				ref, err := parseRef(refText)
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				if err := printObject(out, snap, ref); err != nil {
					return err
				}
			}
			if attrStats {
				fmt.Fprintln(out)
				printAttrStats(out, snap)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&storePath, "store", "", "Read from this bolt store instead of a flatfile")
	cmd.Flags().BoolVar(&players, "players", false, "List all players")
	cmd.Flags().BoolVar(&rooms, "rooms", false, "List rooms with content and exit counts")
	cmd.Flags().BoolVar(&attrStats, "attrstats", false, "Show attribute usage statistics")
	cmd.Flags().StringVar(&refText, "ref", "", "Show details for one object")
	return cmd
}

func printSummary(w io.Writer, snap *gamedb.Snapshot) {
	fmt.Fprintln(w, "=== DATABASE SUMMARY ===")
	fmt.Fprintf(w, "Lineage:        %s (%s)\n", snap.Lineage.Name, snap.Lineage.ID)
	fmt.Fprintf(w, "Version:        %d\n", snap.Version)
	fmt.Fprintf(w, "Header flags:   0x%08x\n", snap.HeaderFlags)
	if snap.HasHeader(gamedb.HeaderSize) {
		fmt.Fprintf(w, "Declared size:  %d objects\n", snap.Size)
	}
	fmt.Fprintf(w, "Loaded objects: %d\n", len(snap.Objects))
	fmt.Fprintf(w, "Attr defs:      %d user-defined attributes\n", len(snap.AttrNames))
	if snap.HasHeader(gamedb.HeaderNextAttr) {
		fmt.Fprintf(w, "Next attr num:  %d\n", snap.NextAttr)
	}
	if snap.HasHeader(gamedb.HeaderRecordPlayers) {
		fmt.Fprintf(w, "Record players: %d\n", snap.RecordPlayers)
	}
	if snap.SavedTime != "" {
		fmt.Fprintf(w, "Saved:          %s\n", snap.SavedTime)
	}

	kinds := make(map[lineage.Kind]int)
	totalAttrs, going := 0, 0
	for _, o := range snap.Objects {
		kinds[snap.Kind(o)]++
		totalAttrs += len(o.Attrs)
		if snap.IsGoing(o) {
			going++
		}
	}
	fmt.Fprintln(w, "\n--- Object Counts by Type ---")
	for _, k := range []lineage.Kind{
		lineage.KindRoom, lineage.KindThing, lineage.KindExit,
		lineage.KindPlayer, lineage.KindZone, lineage.KindGarbage, lineage.KindNone,
	} {
		if c, ok := kinds[k]; ok {
			fmt.Fprintf(w, "  %-10s %d\n", k, c)
		}
	}
	fmt.Fprintf(w, "  %-10s %d\n", "GOING", going)
	fmt.Fprintf(w, "\nTotal attributes across all objects: %d\n", totalAttrs)
}

func printPlayers(w io.Writer, snap *gamedb.Snapshot) {
	fmt.Fprintln(w, "=== PLAYERS ===")
	fmt.Fprintf(w, "%-8s %-25s %-10s %s\n", "DBRef", "Name", "Location", "Last Access")
	fmt.Fprintln(w, strings.Repeat("-", 75))
	n := 0
	for _, o := range snap.Players() {
		if snap.IsGoing(o) {
			continue
		}
		fmt.Fprintf(w, "%-8s %-25s %-10s %s\n", o.DBRef, truncate(o.Name, 25), o.Location, stamp(o.Accessed))
		n++
	}
	fmt.Fprintf(w, "\nTotal players: %d\n", n)
}

func printRooms(w io.Writer, snap *gamedb.Snapshot) {
	fmt.Fprintln(w, "=== ROOMS (first 50) ===")
	fmt.Fprintf(w, "%-8s %-40s %8s %8s\n", "DBRef", "Name", "Contents", "Exits")
	fmt.Fprintln(w, strings.Repeat("-", 68))
	total, shown := 0, 0
	for _, ref := range snap.Refs() {
		o := snap.Object(ref)
		if snap.Kind(o) != lineage.KindRoom || snap.IsGoing(o) {
			continue
		}
		total++
		if shown == 50 {
			continue
		}
		fmt.Fprintf(w, "%-8s %-40s %8d %8d\n", ref, truncate(o.Name, 40),
			chainLen(snap, o.Contents), chainLen(snap, o.Exits))
		shown++
	}
	fmt.Fprintf(w, "\nTotal rooms: %d (showing first %d)\n", total, shown)
}

// chainLen follows Next links from head, stopping at a dangling reference
// or a loop.
func chainLen(snap *gamedb.Snapshot, head gamedb.DBRef) int {
	seen := make(map[gamedb.DBRef]bool)
	for cur := head; cur != gamedb.Nothing && !seen[cur]; {
		o := snap.Object(cur)
		if o == nil {
			break
		}
		seen[cur] = true
		cur = o.Next
	}
	return len(seen)
}

func printObject(w io.Writer, snap *gamedb.Snapshot, ref gamedb.DBRef) error {
	o := snap.Object(ref)
	if o == nil {
		return fmt.Errorf("object %s not found", ref)
	}
	fmt.Fprintf(w, "=== OBJECT %s ===\n", ref)
	fmt.Fprintf(w, "Name:       %s\n", o.Name)
	fmt.Fprintf(w, "Type:       %s\n", snap.Kind(o))
	fmt.Fprintf(w, "Location:   %s\n", o.Location)
	fmt.Fprintf(w, "Zone:       %s\n", o.Zone)
	fmt.Fprintf(w, "Contents:   %s\n", o.Contents)
	fmt.Fprintf(w, "Exits:      %s\n", o.Exits)
	fmt.Fprintf(w, "Link/Home:  %s\n", o.Link)
	fmt.Fprintf(w, "Next:       %s\n", o.Next)
	fmt.Fprintf(w, "Owner:      %s\n", o.Owner)
	fmt.Fprintf(w, "Parent:     %s\n", o.Parent)
	fmt.Fprintf(w, "Pennies:    %d\n", o.Pennies)
	if !snap.Lineage.Named {
		fmt.Fprintf(w, "Flags:      0x%08x 0x%08x 0x%08x\n", o.Flags[0], o.Flags[1], o.Flags[2])
		fmt.Fprintf(w, "Powers:     0x%08x 0x%08x\n", o.Powers[0], o.Powers[1])
	}
	if o.Created != 0 {
		fmt.Fprintf(w, "Created:    %s\n", stamp(o.Created))
	}
	if o.Modified != 0 {
		fmt.Fprintf(w, "Modified:   %s\n", stamp(o.Modified))
	}
	if o.Accessed != 0 {
		fmt.Fprintf(w, "Accessed:   %s\n", stamp(o.Accessed))
	}
	fmt.Fprintf(w, "Going:      %v\n", snap.IsGoing(o))
	fmt.Fprintf(w, "Flag names: %s\n", orNone(flagNames(snap, o)))
	fmt.Fprintf(w, "Powers:     %s\n", orNone(powerNames(snap, o)))

	if len(o.Locks) > 0 {
		fmt.Fprintf(w, "\n--- Locks (%d) ---\n", len(o.Locks))
		for _, l := range o.Locks {
			fmt.Fprintf(w, "  %s = %s\n", l.Name, l.Key)
		}
	} else if o.LockText != "" {
		fmt.Fprintf(w, "Lock:       %s\n", o.LockText)
	}

	fmt.Fprintf(w, "\n--- Attributes (%d) ---\n", len(o.Attrs))
	for _, attr := range o.Attrs {
		name := attr.Name
		if name == "" {
			name = snap.AttrName(attr.Number)
		}
		if name == "" {
			name = fmt.Sprintf("ATTR_%d", attr.Number)
		}
		val := attr.Value
		if len(val) > 120 {
			val = val[:120] + "..."
		}
		fmt.Fprintf(w, "  [%d] %s = %s\n", attr.Number, name, val)
	}
	return nil
}

func printAttrStats(w io.Writer, snap *gamedb.Snapshot) {
	fmt.Fprintln(w, "=== ATTRIBUTE STATISTICS ===")

	usage := make(map[string]int)
	for _, o := range snap.Objects {
		for _, attr := range o.Attrs {
			name := attr.Name
			if name == "" {
				name = snap.AttrName(attr.Number)
			}
			if name == "" {
				name = fmt.Sprintf("ATTR_%d", attr.Number)
			}
			usage[strings.ToUpper(name)]++
		}
	}
	type attrCount struct {
		name  string
		count int
	}
	counts := make([]attrCount, 0, len(usage))
	for name, n := range usage {
		counts = append(counts, attrCount{name, n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].name < counts[j].name
	})

	fmt.Fprintf(w, "%-30s %s\n", "Name", "Usage Count")
	fmt.Fprintln(w, strings.Repeat("-", 45))
	for _, c := range counts[:min(50, len(counts))] {
		fmt.Fprintf(w, "%-30s %d\n", truncate(c.name, 30), c.count)
	}
	fmt.Fprintf(w, "\nTotal unique attributes in use: %d\n", len(usage))
}

func flagNames(snap *gamedb.Snapshot, o *gamedb.Object) []string {
	if snap.Lineage.Named {
		return o.FlagNames
	}
	names, _ := snap.Lineage.Flags.Decode(o.Flags[:])
	return names
}

func powerNames(snap *gamedb.Snapshot, o *gamedb.Object) []string {
	if snap.Lineage.Named {
		return o.PowerNames
	}
	if snap.Lineage.Powers == nil {
		return nil
	}
	names, _ := snap.Lineage.Powers.Decode(o.Powers[:])
	return names
}

func orNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, " ")
}

func stamp(unix int64) string {
	if unix == 0 {
		return "never"
	}
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
