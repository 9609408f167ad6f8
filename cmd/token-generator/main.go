package main

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// Default token length in bytes (resulting in longer base64 string)
	defaultTokenLength = 24
	// Default output file, read by the operations endpoint
	defaultTokensFile = "api_tokens.txt"
)

func main() {
	numTokens := flag.Int("count", 1, "Number of tokens to generate")
	tokenLength := flag.Int("length", defaultTokenLength, "Length of generated tokens in bytes (before encoding)")
	outputFile := flag.String("output", defaultTokensFile, "Output file for tokens")
	appendTokens := flag.Bool("append", false, "Append to existing tokens file instead of overwriting")
	displayOnly := flag.Bool("display-only", false, "Only display tokens, don't write to file")
	force := flag.Bool("force", false, "Force overwrite of existing file without confirmation")
	flag.Parse()

	fmt.Println("Weather Bot API Token Generator")
	fmt.Println("===============================")

	if *numTokens < 1 {
		fmt.Println("Error: count must be at least 1")
		os.Exit(1)
	}
	if *tokenLength < 16 {
		fmt.Println("Warning: tokens shorter than 16 bytes are weak, using 16")
		*tokenLength = 16
	}

	tokens := make([]string, 0, *numTokens)
	for i := 0; i < *numTokens; i++ {
		token, err := generateToken(*tokenLength)
		if err != nil {
			fmt.Printf("Error generating token: %v\n", err)
			os.Exit(1)
		}
		tokens = append(tokens, token)
	}

	fmt.Printf("\nGenerated %d token(s):\n", len(tokens))
	for _, token := range tokens {
		fmt.Printf("- %s\n", token)
	}

	if *displayOnly {
		return
	}

	if !*appendTokens && !*force {
		if _, err := os.Stat(*outputFile); err == nil {
			fmt.Printf("\nFile %s already exists. Overwrite? [y/N]: ", *outputFile)
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
				fmt.Println("Aborted")
				return
			}
		}
	}

	if err := writeTokens(*outputFile, tokens, *appendTokens); err != nil {
		fmt.Printf("Error writing tokens file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nTokens written to %s\n", *outputFile)
	fmt.Println("Point the api.tokens_file config option at this file.")
}

// generateToken produces a URL-safe random token
func generateToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// writeTokens writes one token per line, the format the bot's token
// file loader reads. Lines starting with # are comments.
func writeTokens(path string, tokens []string, appendMode bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := bufio.NewWriter(f)
	if !appendMode {
		fmt.Fprintf(writer, "# API tokens generated %s\n", time.Now().Format("2006-01-02 15:04:05"))
	}
	for _, token := range tokens {
		fmt.Fprintln(writer, token)
	}
	return writer.Flush()
}
