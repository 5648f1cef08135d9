package main

import (
	"flag"
	"fmt"
	"os"

	"tgstash/internal/client"
)

const usage = `Usage:
  tgstash upload [-name NAME] [-caption TEXT] <file>
  tgstash list
  tgstash url <id>

Environment:
  TGSTASH_URL     server base URL (default http://localhost:8080)
  ADMIN_TOKEN     admin token, required for upload
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	baseURL := os.Getenv("TGSTASH_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	c := client.New(baseURL, os.Getenv("ADMIN_TOKEN"))

	switch os.Args[1] {
	case "upload":
		fs := flag.NewFlagSet("upload", flag.ExitOnError)
		name := fs.String("name", "", "display name for the stored file")
		caption := fs.String("caption", "", "free-text annotation")
		fs.Parse(os.Args[2:])

		path, err := client.ValidateFileArg(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		rec, err := c.Upload(path, *name, *caption)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Uploaded %s\n  id: %s\n", rec.FileName, rec.ID)

	case "list":
		recs, err := c.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(recs) == 0 {
			fmt.Println("No files yet")
			return
		}
		for _, rec := range recs {
			fmt.Printf("%s  %s  %s\n", rec.ID, rec.UploadedAt.Format("2006-01-02 15:04"), rec.FileName)
		}

	case "url":
		if len(os.Args) < 3 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(1)
		}
		url, err := c.ResolveURL(os.Args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(url)

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}
