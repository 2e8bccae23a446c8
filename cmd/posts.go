package cmd

import (
	"context"
	"fmt"
	"time"

	"blogfeed/internal/model"

	"github.com/spf13/cobra"
)

var (
	postsCategory string
	postsTrending int
	postsCached   bool
)

// postsCmd lists the current active posts.
var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List active posts (cached or freshly aggregated)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		var posts []model.Post
		switch {
		case postsCached:
			var ok bool
			posts, ok = a.service.CachedPosts()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "cache is empty")
				return nil
			}
		case postsTrending > 0:
			posts, err = a.service.TrendingPosts(ctx, postsTrending)
		case postsCategory != "":
			var cat model.Category
			cat, err = model.ParseCategory(postsCategory)
			if err != nil {
				return err
			}
			posts, err = a.service.PostsByCategory(ctx, cat)
		default:
			posts, err = a.service.FetchLatestPosts(ctx)
		}
		if err != nil {
			return err
		}

		for _, p := range posts {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  [%s] %s\n    %s\n",
				p.PublishDate.Format("2006-01-02"), p.Category, p.Title, p.Link)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d posts\n", len(posts))
		return nil
	},
}

func init() {
	postsCmd.Flags().StringVar(&postsCategory, "category", "", "only posts of this category")
	postsCmd.Flags().IntVar(&postsTrending, "trending", 0, "show top N trending posts")
	postsCmd.Flags().BoolVar(&postsCached, "cached", false, "serve from cache only, no network")
	rootCmd.AddCommand(postsCmd)
}
