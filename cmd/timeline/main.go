package main

import (
	"fmt"
	"os"

	"GuardianWatchService/internal/timeline"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "timeline",
		Short:        "Рисует ленту статусов в PDF",
		SilenceUsage: true,
	}
	root.AddCommand(newRenderCmd())
	return root
}

func newRenderCmd() *cobra.Command {
	opts := timeline.DefaultOptions()
	var out string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Рисует пример ленты за час с шагом 10 минут",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}

			if err := timeline.Render(f, timeline.SampleSeries(), opts); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "timeline written to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "timeline.pdf", "путь к PDF файлу")
	cmd.Flags().StringVar(&opts.Title, "title", opts.Title, "заголовок графика")
	return cmd
}
