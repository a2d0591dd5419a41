package bhs_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/deevus/bhs-tui/internal/bhs"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken   = "secret"
	tipHash     = "000000000000000003e9bb5d0b6f1d6d0b2e0e5a1a9f1b3c1b9b5b2f4e9a7c11"
	prevHash    = "00000000000000000a1f3d1c7e7b0e1f2c3d4e5f60718293a4b5c6d7e8f90a1b"
	merkleRoots = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
)

type tokenString string

func (t tokenString) Token() string { return string(t) }

// fakeService is an in-process Block Headers Service.
type fakeService struct {
	mu       sync.Mutex
	webhooks map[string]bhs.Webhook
	lastAuth string
	lastReq  *http.Request
}

func newFakeService() *fakeService {
	return &fakeService{webhooks: make(map[string]bhs.Webhook)}
}

func (f *fakeService) auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		f.mu.Lock()
		f.lastAuth = auth
		f.lastReq = c.Request.Clone(c.Request.Context())
		f.mu.Unlock()
		if auth != "Bearer "+testToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Next()
	}
}

func (f *fakeService) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	api := router.Group("/api/v1")
	api.Use(f.auth())
	{
		api.GET("/chain/tip/longest", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"header": gin.H{"hash": tipHash, "creationTimestamp": 1700000000},
				"state":  "LONGEST_CHAIN",
				"height": 100,
			})
		})
		api.GET("/chain/header/byHeight", func(c *gin.Context) {
			height, _ := strconv.Atoi(c.Query("height"))
			count, _ := strconv.Atoi(c.Query("count"))
			out := make([]gin.H, 0, count)
			for i := 0; i < count; i++ {
				out = append(out, gin.H{"hash": tipHash, "creationTimestamp": 1700000000 + height + i})
			}
			c.JSON(http.StatusOK, out)
		})
		api.GET("/chain/header/:hash", func(c *gin.Context) {
			if c.Param("hash") != tipHash {
				c.JSON(http.StatusNotFound, gin.H{"error": "header not found"})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"hash":              tipHash,
				"version":           536870912,
				"prevBlockHash":     prevHash,
				"merkleRoot":        merkleRoots,
				"creationTimestamp": 1700000000,
				"difficultyTarget":  403014710,
				"nonce":             2083236893,
				"work":              "184637432957",
			})
		})
		api.GET("/network/peer", func(c *gin.Context) {
			c.JSON(http.StatusOK, []gin.H{
				{"ip": "10.0.0.1", "port": 8333},
				{"ip": "10.0.0.2", "port": 8333},
			})
		})
		api.GET("/webhook", func(c *gin.Context) {
			f.mu.Lock()
			defer f.mu.Unlock()
			out := make([]bhs.Webhook, 0, len(f.webhooks))
			for _, w := range f.webhooks {
				out = append(out, w)
			}
			sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
			c.JSON(http.StatusOK, out)
		})
		api.POST("/webhook", func(c *gin.Context) {
			var req struct {
				URL string `json:"url" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
				return
			}
			f.mu.Lock()
			f.webhooks[req.URL] = bhs.Webhook{URL: req.URL, Active: true}
			f.mu.Unlock()
			c.Status(http.StatusOK)
		})
		api.DELETE("/webhook", func(c *gin.Context) {
			hookURL := c.Query("url")
			f.mu.Lock()
			defer f.mu.Unlock()
			if _, ok := f.webhooks[hookURL]; !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "webhook not found"})
				return
			}
			delete(f.webhooks, hookURL)
			c.Status(http.StatusOK)
		})
	}
	return router
}

func newTestClient(t *testing.T, token string) (*bhs.Client, *fakeService) {
	t.Helper()
	fake := newFakeService()
	srv := httptest.NewServer(fake.router())
	t.Cleanup(srv.Close)
	client := bhs.NewClient(bhs.ClientParams{
		BaseURL: srv.URL + "/api/v1/",
		Tokens:  tokenString(token),
	})
	return client, fake
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	c := bhs.NewClient(bhs.ClientParams{})
	assert.Equal(t, bhs.DefaultBaseURL, c.BaseURL())
}

func TestChainService_Tip(t *testing.T) {
	client, fake := newTestClient(t, testToken)
	svc := bhs.NewChainService(client)

	tip, err := svc.Tip(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, tip.Height)
	assert.Equal(t, tipHash, tip.Header.Hash.String())
	assert.Equal(t, "Bearer "+testToken, fake.lastAuth)
	assert.NotEmpty(t, fake.lastReq.Header.Get("X-Request-ID"))
}

func TestChainService_HeadersByHeight_Query(t *testing.T) {
	client, fake := newTestClient(t, testToken)
	svc := bhs.NewChainService(client)

	headers, err := svc.HeadersByHeight(context.Background(), 91, 10)
	require.NoError(t, err)
	assert.Len(t, headers, 10)
	assert.Equal(t, "91", fake.lastReq.URL.Query().Get("height"))
	assert.Equal(t, "10", fake.lastReq.URL.Query().Get("count"))
	assert.Equal(t, int64(1700000091), headers[0].CreationTimestamp)
}

func TestChainService_Header(t *testing.T) {
	client, _ := newTestClient(t, testToken)
	svc := bhs.NewChainService(client)

	hash, err := chainhash.NewHashFromHex(tipHash)
	require.NoError(t, err)

	detail, err := svc.Header(context.Background(), *hash)
	require.NoError(t, err)
	assert.Equal(t, tipHash, detail.Hash.String())
	assert.Equal(t, prevHash, detail.PrevBlockHash.String())
	assert.Equal(t, merkleRoots, detail.MerkleRoot.String())
	assert.Equal(t, int32(536870912), detail.Version)
	assert.Equal(t, uint32(403014710), detail.DifficultyTarget)
	assert.Equal(t, uint32(2083236893), detail.Nonce)
	assert.Equal(t, "184637432957", detail.Work)
}

func TestChainService_Header_NotFound(t *testing.T) {
	client, _ := newTestClient(t, testToken)
	svc := bhs.NewChainService(client)

	_, err := svc.Header(context.Background(), chainhash.Hash{})
	require.Error(t, err)

	var herr *bhs.HTTPError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusNotFound, herr.StatusCode)
	assert.Contains(t, herr.Body, "header not found")
	assert.False(t, bhs.IsUnauthorized(err))
}

func TestNetworkService_Peers(t *testing.T) {
	client, _ := newTestClient(t, testToken)
	svc := bhs.NewNetworkService(client)

	peers, err := svc.Peers(context.Background())
	require.NoError(t, err)
	require.Len(t, peers, 2)
	assert.Equal(t, bhs.Peer{IP: "10.0.0.1", Port: 8333}, peers[0])
}

func TestClient_Unauthorized(t *testing.T) {
	client, _ := newTestClient(t, "wrong")
	svc := bhs.NewNetworkService(client)

	_, err := svc.Peers(context.Background())
	require.Error(t, err)
	assert.True(t, bhs.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "401")
}

func TestClient_EmptyTokenStillSent(t *testing.T) {
	client, fake := newTestClient(t, "")
	_, err := bhs.NewNetworkService(client).Peers(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Bearer", strings.TrimSpace(fake.lastAuth))
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := bhs.NewClient(bhs.ClientParams{BaseURL: base, Tokens: tokenString(testToken)})
	_, err := bhs.NewChainService(client).Tip(context.Background())
	require.Error(t, err)

	var nerr *bhs.NetworkError
	assert.True(t, errors.As(err, &nerr))
	assert.False(t, bhs.IsUnauthorized(err))
}

func TestClient_CanceledContext(t *testing.T) {
	client, _ := newTestClient(t, testToken)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bhs.NewChainService(client).Tip(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWebhookService_AddListDelete(t *testing.T) {
	client, fake := newTestClient(t, testToken)
	svc := bhs.NewWebhookService(client)
	ctx := context.Background()

	const hook = "https://example.com/hook"
	require.NoError(t, svc.Add(ctx, hook))

	hooks, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, hooks, 1)
	assert.Equal(t, hook, hooks[0].URL)

	require.NoError(t, svc.Delete(ctx, hook))
	assert.Equal(t, hook, fake.lastReq.URL.Query().Get("url"))
	assert.Equal(t, int64(0), fake.lastReq.ContentLength)

	hooks, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, hooks)
}

func TestWebhookService_Delete_Missing(t *testing.T) {
	client, _ := newTestClient(t, testToken)
	err := bhs.NewWebhookService(client).Delete(context.Background(), "https://nope.example")

	var herr *bhs.HTTPError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusNotFound, herr.StatusCode)
}
