package lexicon

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultWordlistURL is the dwyl english-words object-form wordlist.
const DefaultWordlistURL = "https://raw.githubusercontent.com/dwyl/english-words/master/words_dictionary.json"

// maxWordlistSize bounds the download; the dwyl list is roughly 10 MB.
const maxWordlistSize = 64 << 20

// EnsureWordlist checks if the external wordlist exists at path.
// If not, it downloads it from url and writes it in place.
func EnsureWordlist(ctx context.Context, path, url string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if url == "" {
		url = DefaultWordlistURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "gaia-cli")

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download wordlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download wordlist: %s", resp.Status)
	}
	if resp.ContentLength > maxWordlistSize {
		return fmt.Errorf("wordlist of %d bytes exceeds limit of %d bytes", resp.ContentLength, maxWordlistSize)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".wordlist-*.json")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxWordlistSize+1))
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if n > maxWordlistSize {
		return fmt.Errorf("wordlist exceeded maximum size of %d bytes", maxWordlistSize)
	}

	// Refuse to install something that does not parse as a wordlist.
	if _, err := LoadWordlist(tmp.Name()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
