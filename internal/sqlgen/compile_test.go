package sqlgen_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/strataform/strata/internal/sqlgen"
	"github.com/strataform/strata/pkg/model"
)

// testModels returns a normalized snapshot shared by the compiler tests:
// a multitenant blog-style domain exercising every relation kind.
func testModels() []model.Definition {
	return model.Normalize([]model.Definition{
		{
			Name: "User",
			Schema: []model.Field{
				{Name: "id", Type: model.TypeUUID, PrimaryKey: true},
				{Name: "tenantId", Type: model.TypeUUID, Tenant: true},
				{Name: "email", Type: model.TypeString, Unique: true},
			},
			Relations: []model.Relation{
				{Name: "teams", Kind: model.ManyToMany, Target: "Team", Through: "team_members"},
			},
		},
		{
			Name: "Team",
			Schema: []model.Field{
				{Name: "id", Type: model.TypeUUID, PrimaryKey: true},
				{Name: "tenantId", Type: model.TypeUUID, Tenant: true},
				{Name: "name", Type: model.TypeString},
			},
			Relations: []model.Relation{
				{Name: "owner", Kind: model.BelongsTo, Target: "User"},
			},
		},
		{
			Name: "Post",
			Schema: []model.Field{
				{Name: "id", Type: model.TypeUUID, PrimaryKey: true},
				{Name: "tenantId", Type: model.TypeUUID, Tenant: true},
				{Name: "title", Type: model.TypeString},
				{Name: "published", Type: model.TypeBoolean, Default: "false"},
				{Name: "viewCount", Type: model.TypeInteger, Default: "0"},
			},
			Relations: []model.Relation{
				{Name: "author", Kind: model.BelongsTo, Target: "User"},
				{Name: "comments", Kind: model.HasMany, Target: "Comment", ForeignKey: "postId"},
			},
			Policies: map[model.Action]string{
				model.ActionRead: `record.published === true || record.tenantId === user.tenantId`,
			},
		},
		{
			Name: "Comment",
			Schema: []model.Field{
				{Name: "id", Type: model.TypeUUID, PrimaryKey: true},
				{Name: "tenantId", Type: model.TypeUUID, Tenant: true},
				{Name: "body", Type: model.TypeText},
			},
			Relations: []model.Relation{
				{Name: "post", Kind: model.BelongsTo, Target: "Post"},
				{Name: "author", Kind: model.BelongsTo, Target: "User"},
			},
		},
		{
			Name: "Document",
			Schema: []model.Field{
				{Name: "id", Type: model.TypeUUID, PrimaryKey: true},
				{Name: "tenantId", Type: model.TypeUUID, Tenant: true},
				{Name: "title", Type: model.TypeString},
			},
			Relations: []model.Relation{
				{Name: "owner", Kind: model.BelongsTo, Target: "User"},
			},
			Roles:  []string{"admin", "editor"},
			Claims: []string{"doc:write"},
			Permissions: map[model.Action]model.PermissionRule{
				model.ActionUpdate: {
					Roles:     []string{"admin", "editor"},
					Claims:    []string{"doc:write"},
					Condition: `record.ownerId === user.id`,
				},
			},
		},
	})
}

func mustModel(t *testing.T, models []model.Definition, name string) *model.Definition {
	t.Helper()
	m, ok := model.Lookup(models, name)
	if !ok {
		t.Fatalf("fixture has no model %q", name)
	}
	return m
}

func TestCompileCondition(t *testing.T) {
	models := testModels()
	if err := model.Validate(models); err != nil {
		t.Fatalf("fixture snapshot invalid: %v", err)
	}
	comp := sqlgen.NewCompilation(models, false)

	tests := []struct {
		name  string
		model string
		src   string
		want  string
	}{
		{
			name:  "field equality against boolean literal",
			model: "Post",
			src:   `record.published === true`,
			want:  `published = true`,
		},
		{
			name:  "loose and strict equality compile identically",
			model: "Post",
			src:   `record.published == true`,
			want:  `published = true`,
		},
		{
			name:  "numeric comparison",
			model: "Post",
			src:   `record.viewCount > 100`,
			want:  `view_count > 100`,
		},
		{
			name:  "inequality renders as <>",
			model: "Post",
			src:   `record.title !== 'draft'`,
			want:  `title <> 'draft'`,
		},
		{
			name:  "session accessor comparison",
			model: "Post",
			src:   `record.author === user.id`,
			want:  `author_id = current_setting('strata.user_id', true)`,
		},
		{
			name:  "disjunction of role check and ownership",
			model: "Post",
			src:   `user.role === 'admin' || record.authorId === user.id`,
			want:  `(current_setting('strata.role', true) = 'admin' OR author_id = current_setting('strata.user_id', true))`,
		},
		{
			name:  "negation wraps the operand",
			model: "Post",
			src:   `!(record.published === true)`,
			want:  `NOT (published = true)`,
		},
		{
			name:  "single-hop chain compiles to a scalar subquery",
			model: "Post",
			src:   `record.author.email === 'root@example.com'`,
			want:  `(SELECT j0.email FROM users AS j0 WHERE j0.id = author_id) = 'root@example.com'`,
		},
		{
			name:  "two-hop chain stacks numbered aliases",
			model: "Comment",
			src:   `record.post.author.email === user.id`,
			want:  `(SELECT j1.email FROM posts AS j0, users AS j1 WHERE (j0.id = post_id AND j1.id = j0.author_id)) = current_setting('strata.user_id', true)`,
		},
		{
			name:  "some compiles to EXISTS",
			model: "Post",
			src:   `record.comments.some(c => c.author === user.id)`,
			want:  `EXISTS (SELECT 1 FROM comments AS j0 WHERE (j0.post_id = id AND (j0.author_id = current_setting('strata.user_id', true))))`,
		},
		{
			name:  "every compiles to NOT EXISTS of the negated body",
			model: "Post",
			src:   `record.comments.every(c => c.body !== '')`,
			want:  `NOT EXISTS (SELECT 1 FROM comments AS j0 WHERE (j0.post_id = id AND NOT (j0.body <> '')))`,
		},
		{
			name:  "includes over manyToMany goes through the join table",
			model: "User",
			src:   `record.teams.includes(user.id)`,
			want:  `current_setting('strata.user_id', true) IN (SELECT j0.id FROM team_members AS j0_link, teams AS j0 WHERE (j0_link.user_id = id AND j0.id = j0_link.team_id))`,
		},
		{
			name:  "chain inside a callback allocates a fresh alias",
			model: "Post",
			src:   `record.comments.some(c => c.author.email === 'x')`,
			want:  `EXISTS (SELECT 1 FROM comments AS j0 WHERE (j0.post_id = id AND ((SELECT j1.email FROM users AS j1 WHERE j1.id = j0.author_id) = 'x')))`,
		},
		{
			name:  "chain inside a manyToMany callback allocates a fresh alias",
			model: "User",
			src:   `record.teams.some(tm => tm.owner.email === 'x')`,
			want:  `EXISTS (SELECT 1 FROM team_members AS j0_link, teams AS j0 WHERE (j0_link.user_id = id AND j0.id = j0_link.team_id AND ((SELECT j1.email FROM users AS j1 WHERE j1.id = j0.owner_id) = 'x')))`,
		},
		{
			name:  "wrapper parameter names the row",
			model: "Post",
			src:   `post => post.published === true`,
			want:  `published = true`,
		},
		{
			name:  "callback parameter shadows the session sentinel",
			model: "Post",
			src:   `record.comments.some(user => user.body === 'ok')`,
			want:  `EXISTS (SELECT 1 FROM comments AS j0 WHERE (j0.post_id = id AND (j0.body = 'ok')))`,
		},
		{
			name:  "literal true body",
			model: "Post",
			src:   `true`,
			want:  `true`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := comp.CompileCondition(mustModel(t, models, tt.model), tt.src)
			if err != nil {
				t.Fatalf("CompileCondition(%q) error: %v", tt.src, err)
			}
			if got != tt.want {
				t.Errorf("CompileCondition(%q)\n got:  %s\n want: %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestCompileConditionMultiTenantJoins(t *testing.T) {
	models := testModels()
	comp := sqlgen.NewCompilation(models, true)
	post := mustModel(t, models, "Post")

	got, err := comp.CompileCondition(post, `record.author.email === user.id`)
	if err != nil {
		t.Fatalf("CompileCondition error: %v", err)
	}
	want := `(SELECT j0.email FROM users AS j0 WHERE (j0.id = author_id AND j0.tenant_id = current_setting('strata.tenant_id', true))) = current_setting('strata.user_id', true)`
	if got != want {
		t.Errorf("joined table missed the tenant filter\n got:  %s\n want: %s", got, want)
	}
}

func TestCompileConditionErrors(t *testing.T) {
	models := testModels()
	comp := sqlgen.NewCompilation(models, false)

	tests := []struct {
		name    string
		model   string
		src     string
		errIs   error
		errPart string
	}{
		{
			name:  "unbound identifier",
			model: "Post",
			src:   `account.id === user.id`,
			errIs: sqlgen.ErrUnboundIdentifier,
		},
		{
			name:  "unknown field",
			model: "Post",
			src:   `record.missing === true`,
			errIs: sqlgen.ErrUnknownProperty,
		},
		{
			name:  "unknown session accessor",
			model: "Post",
			src:   `user.password === 'x'`,
			errIs: sqlgen.ErrUnknownProperty,
		},
		{
			name:    "hop cap exceeded",
			model:   "Comment",
			src:     `record.post.author.teams.owner.id === user.id`,
			errIs:   sqlgen.ErrHopDepth,
			errPart: "cap of 3",
		},
		{
			name:    "non-quantifier method call",
			model:   "Post",
			src:     `record.delete()`,
			errIs:   sqlgen.ErrUnsupportedExpr,
			errPart: "Post",
		},
		{
			name:  "assignment is rejected",
			model: "Post",
			src:   `record.title = 'x'`,
			errIs: sqlgen.ErrUnsupportedExpr,
		},
		{
			name:  "quantifier over user",
			model: "Post",
			src:   `user.teams.some(x => true)`,
			errIs: sqlgen.ErrUnsupportedExpr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := comp.CompileCondition(mustModel(t, models, tt.model), tt.src)
			if err == nil {
				t.Fatalf("CompileCondition(%q) succeeded, want error", tt.src)
			}
			if tt.errIs != nil && !errors.Is(err, tt.errIs) {
				t.Errorf("CompileCondition(%q) error = %v, want %v", tt.src, err, tt.errIs)
			}
			if tt.errPart != "" && !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("CompileCondition(%q) error %q missing %q", tt.src, err, tt.errPart)
			}
		})
	}
}
