package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/chazjack/parliamentary-scanner/internal/shared"
)

// TopicsList prints all topics with their search keywords.
func (r *Runner) TopicsList(ctx context.Context, cmd *cli.Command) error {
	topics, err := r.api.FetchTopics(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(topics, cmd.Bool("pretty"))
	}

	if len(topics) == 0 {
		return r.writePlain("No topics configured\n")
	}

	r.writePlainHeader("Topics")
	for _, t := range topics {
		r.writePlain("#%d %s\n", t.ID, t.Name)
		if len(t.Keywords) > 0 {
			r.writePlain("   %s\n", strings.Join(t.Keywords, ", "))
		}
	}

	return nil
}
