package logstream

import (
	"context"

	"awstail/internal/api"
	"awstail/internal/services"
)

// GroupLister pages through the log groups visible to the caller.
type GroupLister interface {
	DescribeGroups(ctx context.Context, token *string) (api.GroupsPage, error)
}

// ListGroups calls fn for every group name, following tokens until the
// backend stops returning them or sends an empty page.
func ListGroups(ctx context.Context, lister GroupLister, fn func(string) error) error {
	var token *string
	for {
		page, err := lister.DescribeGroups(ctx, token)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return services.Wrap(services.ErrBackend, "groups", "describe log groups", "", err)
		}
		if len(page.Names) == 0 {
			return nil
		}
		for _, name := range page.Names {
			if err := fn(name); err != nil {
				return err
			}
		}
		if page.NextToken == nil || *page.NextToken == "" {
			return nil
		}
		next := *page.NextToken
		token = &next
	}
}
