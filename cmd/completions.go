package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/timeblock/internal/theme"
)

// dayCompletions are offered for --days. Day names complete after a comma.
var dayCompletions = []string{
	"weekdays\tMonday to Friday",
	"weekends\tSaturday and Sunday",
	"daily\tevery day",
	"mon", "tue", "wed", "thu", "fri", "sat", "sun",
}

// completeBlockIDs returns block short IDs with their labels.
func completeBlockIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	// Completion runs without PersistentPreRunE
	if ctx == nil {
		if err := openRuntime(); err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		defer closeRuntime()
	}

	var completions []string
	for _, b := range ctx.Store.List() {
		if strings.HasPrefix(b.ID, toComplete) {
			completions = append(completions, b.ShortID()+"\t"+b.DisplayLabel())
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeThemes returns the palette keys.
func completeThemes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var completions []string
	for _, p := range theme.All() {
		if strings.HasPrefix(p.Key, toComplete) {
			completions = append(completions, p.Key+"\t"+p.Name)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeDays completes the last item of a comma separated day list.
func completeDays(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	last := toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
		last = toComplete[i+1:]
	}

	var completions []string
	for _, c := range dayCompletions {
		name := strings.SplitN(c, "\t", 2)[0]
		if prefix != "" && strings.Contains(c, "\t") {
			// Shortcuts stand alone
			continue
		}
		if strings.HasPrefix(name, strings.ToLower(last)) {
			completions = append(completions, prefix+c)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}
