package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pulsedesk/internal/briefing"
	"pulsedesk/internal/config"
	"pulsedesk/internal/feed"
	"pulsedesk/internal/publisher"
)

// openShare is swappable so command tests don't launch a browser.
var openShare = publisher.OpenBrowser

// --- discover ---

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Fetch the latest GCC industry stories (replaces the article collection)",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Discovering stories...")
		resp, err := client.post(cmd.Context(), "/news/refresh", nil)
		if err != nil {
			return err
		}

		var articles []feed.Article
		if err := decodeJSON(resp, &articles); err != nil {
			return err
		}

		printSuccess("Fetched %d stories", len(articles))
		printArticles(articles)
		return nil
	},
}

// --- articles ---

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "List the current article collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/articles")
		if err != nil {
			return err
		}

		var articles []feed.Article
		if err := decodeJSON(resp, &articles); err != nil {
			return err
		}

		if len(articles) == 0 {
			printWarning("no articles — run `pulsedesk discover` first")
			return nil
		}
		printArticles(articles)
		return nil
	},
}

func printArticles(articles []feed.Article) {
	for _, a := range articles {
		fmt.Fprintf(os.Stdout, "%s  [%s] %s\n", a.ID, a.Sector, a.Title)
		fmt.Fprintf(os.Stdout, "    %s — %s, %s\n", a.Source, a.Region, a.Date)
		fmt.Fprintf(os.Stdout, "    %s\n", a.Summary)
	}
}

// --- import ---

var importCmd = &cobra.Command{
	Use:   "import <file.pdf>",
	Short: "Import a local PDF briefing as an article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		region, _ := cmd.Flags().GetString("region")
		sector, _ := cmd.Flags().GetString("sector")

		article, err := briefing.FromPDF(args[0], region, sector)
		if err != nil {
			return fmt.Errorf("importing briefing: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/articles", article)
		if err != nil {
			return err
		}
		if err := drain(resp); err != nil {
			return err
		}

		printSuccess("Imported %q as article %s", article.Title, article.ID)
		return nil
	},
}

func init() {
	importCmd.Flags().String("region", "GCC", "region label for the imported article")
	importCmd.Flags().String("sector", feed.SectorIT, "sector label for the imported article")
}

// --- draft ---

var draftCmd = &cobra.Command{
	Use:   "draft <article-id>",
	Short: "Generate a post draft from an article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Drafting post...")
		resp, err := client.post(cmd.Context(), "/posts", map[string]string{"article_id": args[0]})
		if err != nil {
			return err
		}

		var post feed.GeneratedPost
		if err := decodeJSON(resp, &post); err != nil {
			return err
		}

		printSuccess("Draft %s created from %q", post.ID, post.OriginalArticleTitle)
		fmt.Fprintln(os.Stdout, post.Content)
		return nil
	},
}

// --- posts ---

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List posts (newest drafts first)",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := "/posts"
		if status != "" {
			path += "?status=" + status
		}
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var posts []feed.GeneratedPost
		if err := decodeJSON(resp, &posts); err != nil {
			return err
		}

		if len(posts) == 0 {
			printWarning("no posts")
			return nil
		}
		for _, p := range posts {
			edited := time.UnixMilli(p.LastEditedAt).Format("2006-01-02 15:04")
			fmt.Fprintf(os.Stdout, "%s  [%s] %s (edited %s)\n", p.ID, p.Status, p.OriginalArticleTitle, edited)
			fmt.Fprintf(os.Stdout, "    %s\n", firstLine(p.Content))
		}
		return nil
	},
}

func init() {
	postsCmd.Flags().String("status", "", "filter by status (draft or published)")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// --- save ---

var saveCmd = &cobra.Command{
	Use:   "save <post-id>",
	Short: "Replace a post's content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, _ := cmd.Flags().GetString("content")
		file, _ := cmd.Flags().GetString("file")

		if content == "" && file == "" {
			return fmt.Errorf("one of --content or --file is required")
		}
		if file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			content = string(data)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.patch(cmd.Context(), "/posts/"+args[0], map[string]string{"content": content})
		if err != nil {
			return err
		}
		if err := drain(resp); err != nil {
			return err
		}

		printSuccess("Saved post %s", args[0])
		return nil
	},
}

func init() {
	saveCmd.Flags().String("content", "", "new post body")
	saveCmd.Flags().String("file", "", "file to read the new post body from")
}

// --- publish ---

var publishCmd = &cobra.Command{
	Use:   "publish <post-id>",
	Short: "Publish a post and open the share composer",
	Long: `Publish a post: sends the share payload to the configured endpoint,
records the post as published, and opens the share-intent link in your
browser for manual confirmation. Publishing an already-published post
re-sends the payload and reopens the composer.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		noOpen, _ := cmd.Flags().GetBool("no-open")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Publishing post...")
		resp, err := client.post(cmd.Context(), "/posts/"+args[0]+"/publish", nil)
		if err != nil {
			return err
		}

		var result struct {
			Post     feed.GeneratedPost `json:"post"`
			ShareURL string             `json:"share_url"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Post %s published", result.Post.ID)
		if noOpen {
			fmt.Fprintln(os.Stdout, result.ShareURL)
			return nil
		}
		if err := openShare(result.ShareURL); err != nil {
			printWarning("could not open browser: %v", err)
			fmt.Fprintln(os.Stdout, result.ShareURL)
		}
		return nil
	},
}

func init() {
	publishCmd.Flags().Bool("no-open", false, "print the share link instead of opening the browser")
}

// --- clear ---

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Wipe the stored article and post collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/storage")
		if err != nil {
			return err
		}
		if err := drain(resp); err != nil {
			return err
		}

		printSuccess("Storage cleared")
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, ki := range config.ShowAll(cfg) {
			printStatus(ki.Key, "%s", ki.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetKey(args[0], args[1]); err != nil {
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.ValidKeys(), ", "))
		}
		printSuccess("Set %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
