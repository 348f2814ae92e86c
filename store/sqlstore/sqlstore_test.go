package sqlstore_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/satishbabariya/docql/query/ast"
	"github.com/satishbabariya/docql/query/builder"
	"github.com/satishbabariya/docql/query/compiler"
	"github.com/satishbabariya/docql/store"
	"github.com/satishbabariya/docql/store/memory"
	"github.com/satishbabariya/docql/store/sqlstore"
)

var fixtures = []json.RawMessage{
	json.RawMessage(`{"_id":"u1","name":"John","age":30,"score":1.5,"active":true}`),
	json.RawMessage(`{"_id":"u2","name":"Felipe","age":17,"score":9,"active":false}`),
	json.RawMessage(`{"_id":"u3","name":"Ada","age":36,"score":7.25,"active":true}`),
	json.RawMessage(`{"_id":"u4","name":"Grace","age":30,"score":3,"active":false}`),
	json.RawMessage(`{"_id":"u5","name":"John","age":52,"score":0,"active":true}`),
}

type user struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func ids(users []user) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}

// sharedQueries use only operators every backend supports. ANDs precede ORs
// so that SQL precedence agrees with left-to-right evaluation.
func sharedQueries() map[string]*ast.Query {
	byID := func(b *builder.QueryBuilder) *ast.Query {
		return b.SortBy("_id", ast.Ascending).MustBuild()
	}
	return map[string]*ast.Query{
		"all":          byID(builder.New()),
		"string eq":    byID(builder.New().Eq("name", "John")),
		"number gt":    byID(builder.New().Gt("age", 29)),
		"float gt":     byID(builder.New().Gt("score", 2)),
		"not equals":   byID(builder.New().NotEq("name", "John")),
		"and":          byID(builder.New().Eq("name", "John").Gt("age", 40)),
		"or":           byID(builder.New().Eq("name", "Ada").OrWhere("name", "Grace")),
		"and then or":  byID(builder.New().Eq("age", 30).NotEq("name", "John").OrWhere("name", "Ada")),
		"nested group": byID(builder.New().Gt("age", 18).And(func(g *builder.QueryBuilder) *builder.QueryBuilder { return g.Eq("name", "John").OrWhere("name", "Grace") })),
		"limit offset": byID(builder.New().Gt("age", 0).Offset(1).Limit(2)),
		"descending": builder.New().
			SortBy("age", ast.Descending).
			SortBy("_id", ast.Ascending).
			MustBuild(),
	}
}

func openSQLite(t *testing.T) *sqlstore.Store {
	t.Helper()
	collections, err := store.NewCollections("users")
	require.NoError(t, err)

	s, err := sqlstore.Open(context.Background(), sqlstore.Config{
		Provider:  "sqlite",
		URL:       ":memory:",
		CacheSize: 16,
		CacheTTL:  time.Minute,
	}, collections)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func load(t *testing.T, p store.Persistence) {
	t.Helper()
	for _, doc := range fixtures {
		_, err := p.Insert(context.Background(), "users", doc)
		require.NoError(t, err)
	}
}

func TestSQLite_AgreesWithMatcher(t *testing.T) {
	sqlite := openSQLite(t)
	load(t, sqlite)

	mem := memory.New()
	load(t, mem)

	ctx := context.Background()
	for name, q := range sharedQueries() {
		t.Run(name, func(t *testing.T) {
			want, err := store.Find[user](ctx, mem, "users", q)
			require.NoError(t, err)

			got, err := store.Find[user](ctx, sqlite, "users", q)
			require.NoError(t, err)

			assert.Equal(t, ids(want), ids(got))
		})
	}
}

func TestSQLite_Insert(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	id, err := store.InsertValue(ctx, s, "users", map[string]any{"name": "Linus", "age": 54})
	require.NoError(t, err)
	assert.Len(t, id, 36)

	users, err := store.Find[user](ctx, s, "users", builder.New().Eq("name", "Linus").MustBuild())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, id, users[0].ID)
	assert.Equal(t, 54, users[0].Age)

	_, err = s.Insert(ctx, "users", json.RawMessage(`[1,2]`))
	assert.ErrorIs(t, err, store.ErrInvalidDocument)
}

func TestSQLite_Errors(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	_, err := s.Find(ctx, "orders", nil)
	assert.ErrorIs(t, err, store.ErrUnknownCollection)

	_, err = s.Find(ctx, "users", builder.New().Lt("age", 3).MustBuild())
	assert.ErrorIs(t, err, ast.ErrUnsupportedOperator)

	require.NoError(t, s.Close())
	_, err = s.Find(ctx, "users", nil)
	assert.ErrorIs(t, err, store.ErrClosed)
}

func TestOpen_UnknownProvider(t *testing.T) {
	collections, err := store.NewCollections("users")
	require.NoError(t, err)
	_, err = sqlstore.Open(context.Background(), sqlstore.Config{Provider: "oracle"}, collections)
	assert.Error(t, err)
}

// ServerSuite runs the shared queries against a database server. It is
// skipped unless the provider's URL variable is set.
type ServerSuite struct {
	suite.Suite
	provider string
	urlEnv   string
	table    string
	store    *sqlstore.Store
	memory   *memory.Store
}

func (s *ServerSuite) SetupSuite() {
	url := os.Getenv(s.urlEnv)
	if url == "" {
		s.T().Skipf("%s not set", s.urlEnv)
	}

	s.table = fmt.Sprintf("docql_test_%d", time.Now().UnixNano())
	collections, err := store.NewCollections()
	s.Require().NoError(err)
	s.Require().NoError(collections.Register("users", compiler.Table(s.table)))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.store, err = sqlstore.Open(ctx, sqlstore.Config{
		Provider:       s.provider,
		URL:            url,
		MaxConnections: 4,
		ConnectTimeout: 10 * time.Second,
	}, collections)
	s.Require().NoError(err)

	s.memory = memory.New()
	load(s.T(), s.store)
	load(s.T(), s.memory)
}

func (s *ServerSuite) TearDownSuite() {
	if s.store == nil {
		return
	}
	_, err := s.store.DB().Exec("DROP TABLE IF EXISTS " + s.table)
	if err != nil {
		s.T().Logf("Warning: could not drop %s: %v", s.table, err)
	}
	s.store.Close()
}

func (s *ServerSuite) TestSharedQueries() {
	ctx := context.Background()
	for name, q := range sharedQueries() {
		s.Run(name, func() {
			want, err := store.Find[user](ctx, s.memory, "users", q)
			s.Require().NoError(err)

			got, err := store.Find[user](ctx, s.store, "users", q)
			s.Require().NoError(err)
			s.Equal(ids(want), ids(got))
		})
	}
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, &ServerSuite{provider: "postgres", urlEnv: "DOCQL_POSTGRES_URL"})
}

func TestMySQLSuite(t *testing.T) {
	suite.Run(t, &ServerSuite{provider: "mysql", urlEnv: "DOCQL_MYSQL_URL"})
}
