// guide.go implements "ndr guide" and "ndr llm", the embedded documentation
// commands.
//
// Design: Guides are markdown files compiled into the binary by the guide
// package. A terminal gets glamour rendering; a pipe gets the raw markdown
// so the text can be loaded straight into an LLM context. With -o json the
// topic and its markdown are returned as one object.

package core

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/prehisle/ndr/cmd"
	"github.com/prehisle/ndr/extension"
	"github.com/prehisle/ndr/guide"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// guideJSON is the -o json form of a guide page.
type guideJSON struct {
	Topic   string `json:"topic"`
	Content string `json:"content"`
}

func newGuideCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "guide [topic]",
		Short: "Show the ndr usage guide",
		Long: `Outputs the ndr guide for LLMs and humans.

  ndr guide            # main guide
  ndr guide node       # node commands
  ndr guide bind --raw # markdown even on a terminal`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			topic := ""
			if len(args) > 0 {
				topic = args[0]
			}
			raw, _ := c.Flags().GetBool(extension.FlagRaw)
			return showGuide(topic, raw)
		},
	}
	c.Flags().Bool(extension.FlagRaw, false, "Print markdown without terminal rendering")
	return c
}

func newLlmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "llm",
		Short: "Getting started guide for LLMs",
		Long:  `Quick reference for LLMs: the commands, the actor requirement and JSON output.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return showGuide("llm", false)
		},
	}
}

func showGuide(topic string, raw bool) error {
	content, err := guide.Get(topic)
	if err != nil {
		available, listErr := guide.List()
		if listErr != nil {
			return listErr
		}
		return cmd.PrintJSONError(fmt.Errorf("guide %q not found. Available: %s", topic, strings.Join(available, ", ")))
	}
	if cmd.JSON() {
		if topic == "" {
			topic = "guide"
		}
		return cmd.PrintJSON(guideJSON{Topic: topic, Content: content})
	}
	if !raw && term.IsTerminal(int(os.Stdout.Fd())) {
		if rendered, err := glamour.Render(content, "dark"); err == nil {
			fmt.Fprint(cmd.Out(), rendered)
			return nil
		}
	}
	fmt.Fprint(cmd.Out(), content)
	return nil
}
