package ingest_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshoup521/NewsHub/cmd/common"
	"github.com/oshoup521/NewsHub/cmd/ingest"
	"github.com/oshoup521/NewsHub/internal/config"
	"github.com/oshoup521/NewsHub/internal/database"
	"github.com/oshoup521/NewsHub/internal/logger"
)

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Example Atom</title>
  <link href="https://atom.example.com/"/>
  <updated>2024-05-06T07:08:09Z</updated>
  <entry>
    <title>Atom entry</title>
    <link href="https://atom.example.com/entry"/>
    <id>urn:uuid:1225c695-cfb8-4ebb-aaaa-80da344efa6a</id>
    <updated>2024-05-06T07:08:09Z</updated>
    <summary type="html">&lt;p&gt;Hello &lt;img src="https://cdn.example.com/atom.png"&gt;&lt;/p&gt;</summary>
    <author><name>Atom Author</name></author>
  </entry>
</feed>`

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(atomFeed))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database:\n  dsn: "+filepath.Join(dir, "e2e.sqlite")+"\n"), 0o600))

	deps, err := common.NewCommandDeps(common.Options{Viper: config.NewViper(), ConfigFile: cfgPath})
	require.NoError(t, err)

	// Seed through a first store handle; Run opens its own.
	store, closeStore, err := common.OpenStore(context.Background(), deps)
	require.NoError(t, err)
	db := store.DB()
	db.MustExec(`INSERT INTO categories (name, slug) VALUES ('General', 'general')`)
	db.MustExec(db.Rebind(`INSERT INTO feeds (name, url, "categoryId") VALUES (?, ?, 1)`), "Atom", srv.URL)
	closeStore()

	var out bytes.Buffer
	require.NoError(t, ingest.Run(context.Background(), deps, nil, &out))
	assert.Contains(t, out.String(), "Atom")

	store, closeStore, err = common.OpenStore(context.Background(), deps)
	require.NoError(t, err)
	t.Cleanup(closeStore)

	var imageURL, author string
	require.NoError(t, store.DB().QueryRowx(
		`SELECT "imageUrl", author FROM articles WHERE url = 'https://atom.example.com/entry'`,
	).Scan(&imageURL, &author))
	assert.Equal(t, "https://cdn.example.com/atom.png", imageURL)
	assert.Equal(t, "Atom Author", author)
}

// syncCountingLogger counts Sync calls.
type syncCountingLogger struct {
	logger.Logger
	syncs atomic.Int32
}

func (l *syncCountingLogger) Sync() error {
	l.syncs.Add(1)
	return nil
}

func TestRun_SyncsLoggerWhenStoreFailsToOpen(t *testing.T) {
	t.Parallel()

	log := &syncCountingLogger{Logger: logger.NewNop()}
	deps := &common.CommandDeps{
		Logger: log,
		Config: &config.Config{Database: database.Config{Driver: "bogus", DSN: "nowhere"}},
	}

	err := ingest.Run(context.Background(), deps, nil, &bytes.Buffer{})

	require.ErrorIs(t, err, database.ErrUnsupportedDriver)
	assert.Equal(t, int32(1), log.syncs.Load())
}
