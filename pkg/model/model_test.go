package model_test

import (
	"strings"
	"testing"

	"github.com/strataform/strata/pkg/model"
)

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Post", "post"},
		{"ProjectMember", "project_member"},
		{"tenantId", "tenant_id"},
		{"ownerID", "owner_id"},
		{"APIKey", "api_key"},
		{"published", "published"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := model.SnakeCase(tt.in); got != tt.want {
			t.Errorf("SnakeCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTableName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Post", "posts"},
		{"Category", "categories"},
		{"ProjectMember", "project_members"},
		{"Person", "people"},
	}
	for _, tt := range tests {
		if got := model.TableName(tt.in); got != tt.want {
			t.Errorf("TableName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_DerivesBelongsToForeignKey(t *testing.T) {
	models := []model.Definition{
		{
			Name: "Post",
			Schema: []model.Field{
				{Name: "id", Type: model.TypeUUID, PrimaryKey: true},
			},
			Relations: []model.Relation{
				{Name: "author", Kind: model.BelongsTo, Target: "User"},
			},
		},
		{
			Name: "User",
			Schema: []model.Field{
				{Name: "id", Type: model.TypeUUID, PrimaryKey: true},
			},
		},
	}

	normalized := model.Normalize(models)

	post, _ := model.Lookup(normalized, "Post")
	rel, ok := post.Relation("author")
	if !ok {
		t.Fatal("author relation missing after Normalize")
	}
	if rel.ForeignKey != "authorId" {
		t.Errorf("ForeignKey = %q, want %q", rel.ForeignKey, "authorId")
	}

	fk, ok := post.Field("authorId")
	if !ok {
		t.Fatal("expected synthesized authorId field")
	}
	if fk.Type != model.TypeUUID {
		t.Errorf("synthesized FK type = %q, want uuid", fk.Type)
	}

	// Input must not be mutated.
	if len(models[0].Schema) != 1 {
		t.Errorf("Normalize mutated its input: %d fields", len(models[0].Schema))
	}
	if models[0].Relations[0].ForeignKey != "" {
		t.Error("Normalize mutated input relation")
	}
}

func TestNormalize_DerivesHasManyForeignKey(t *testing.T) {
	models := []model.Definition{
		{
			Name: "Post",
			Schema: []model.Field{
				{Name: "id", Type: model.TypeUUID, PrimaryKey: true},
			},
			Relations: []model.Relation{
				{Name: "comments", Kind: model.HasMany, Target: "Comment"},
			},
		},
		{
			Name: "Comment",
			Schema: []model.Field{
				{Name: "id", Type: model.TypeUUID, PrimaryKey: true},
				{Name: "postId", Type: model.TypeUUID},
			},
		},
	}

	normalized := model.Normalize(models)
	post, _ := model.Lookup(normalized, "Post")
	rel, _ := post.Relation("comments")
	if rel.ForeignKey != "postId" {
		t.Errorf("hasMany ForeignKey = %q, want %q", rel.ForeignKey, "postId")
	}
}

func TestValidate_MissingPrimaryKey(t *testing.T) {
	models := []model.Definition{
		{Name: "Post", Schema: []model.Field{{Name: "title", Type: model.TypeString}}},
	}

	err := model.Validate(models)
	if err == nil {
		t.Fatal("expected error for model without primary key")
	}
	if !model.IsMissingPrimaryKeyErr(err) {
		t.Error("expected IsMissingPrimaryKeyErr to return true")
	}
	if !strings.Contains(err.Error(), "Post") {
		t.Errorf("error should name the model, got: %s", err)
	}
}

func TestValidate_MultiplePrimaryKeys(t *testing.T) {
	models := []model.Definition{
		{Name: "Post", Schema: []model.Field{
			{Name: "id", Type: model.TypeUUID, PrimaryKey: true},
			{Name: "slug", Type: model.TypeString, PrimaryKey: true},
		}},
	}

	err := model.Validate(models)
	if !model.IsMissingPrimaryKeyErr(err) {
		t.Fatalf("expected primary key error, got: %v", err)
	}
}

func TestValidate_UnknownRelationTarget(t *testing.T) {
	models := []model.Definition{
		{
			Name:   "Post",
			Schema: []model.Field{{Name: "id", Type: model.TypeUUID, PrimaryKey: true}},
			Relations: []model.Relation{
				{Name: "author", Kind: model.BelongsTo, Target: "Ghost", ForeignKey: "authorId"},
			},
		},
	}

	err := model.Validate(models)
	if err == nil {
		t.Fatal("expected error for unknown relation target")
	}
	if !strings.Contains(err.Error(), "Ghost") || !strings.Contains(err.Error(), "author") {
		t.Errorf("error should name the relation and target, got: %s", err)
	}
}

func TestValidate_DuplicateRule(t *testing.T) {
	models := []model.Definition{
		{
			Name:   "Post",
			Schema: []model.Field{{Name: "id", Type: model.TypeUUID, PrimaryKey: true}},
			Policies: map[model.Action]string{
				model.ActionRead: "true",
			},
			Permissions: map[model.Action]model.PermissionRule{
				model.ActionRead: {Roles: []string{"admin"}},
			},
			Roles: []string{"admin"},
		},
	}

	err := model.Validate(models)
	if err == nil {
		t.Fatal("expected error for duplicate (model, action) rule")
	}
	if !strings.Contains(err.Error(), "read") {
		t.Errorf("error should name the action, got: %s", err)
	}
}

func TestValidate_UndeclaredRole(t *testing.T) {
	models := []model.Definition{
		{
			Name:   "Post",
			Schema: []model.Field{{Name: "id", Type: model.TypeUUID, PrimaryKey: true}},
			Permissions: map[model.Action]model.PermissionRule{
				model.ActionUpdate: {Roles: []string{"editor"}},
			},
		},
	}

	err := model.Validate(models)
	if err == nil {
		t.Fatal("expected error for undeclared role")
	}
	if !strings.Contains(err.Error(), "editor") {
		t.Errorf("error should name the role, got: %s", err)
	}
}

func TestDetectCycles_BelongsToCycle(t *testing.T) {
	models := []model.Definition{
		{
			Name:   "Invoice",
			Schema: []model.Field{{Name: "id", Type: model.TypeUUID, PrimaryKey: true}},
			Relations: []model.Relation{
				{Name: "order", Kind: model.BelongsTo, Target: "Order", ForeignKey: "orderId"},
			},
		},
		{
			Name:   "Order",
			Schema: []model.Field{{Name: "id", Type: model.TypeUUID, PrimaryKey: true}},
			Relations: []model.Relation{
				{Name: "invoice", Kind: model.BelongsTo, Target: "Invoice", ForeignKey: "invoiceId"},
			},
		},
	}

	err := model.DetectCycles(models)
	if err == nil {
		t.Fatal("expected error for belongsTo cycle")
	}
	if !model.IsCyclicRelationsErr(err) {
		t.Error("expected IsCyclicRelationsErr to return true")
	}
	if !strings.Contains(err.Error(), "Invoice") || !strings.Contains(err.Error(), "Order") {
		t.Errorf("error should contain the cycle path, got: %s", err)
	}
}

func TestDetectCycles_SelfReferenceExempt(t *testing.T) {
	models := []model.Definition{
		{
			Name:   "Category",
			Schema: []model.Field{{Name: "id", Type: model.TypeUUID, PrimaryKey: true}},
			Relations: []model.Relation{
				{Name: "parent", Kind: model.BelongsTo, Target: "Category", ForeignKey: "parentId"},
			},
		},
	}

	if err := model.DetectCycles(models); err != nil {
		t.Fatalf("self-referencing belongsTo must be exempt, got: %v", err)
	}
}

func TestDetectCycles_HasManyIgnored(t *testing.T) {
	// hasMany edges are the inverse of belongsTo; only belongsTo edges
	// participate in cycle detection.
	models := []model.Definition{
		{
			Name:   "Post",
			Schema: []model.Field{{Name: "id", Type: model.TypeUUID, PrimaryKey: true}},
			Relations: []model.Relation{
				{Name: "comments", Kind: model.HasMany, Target: "Comment", ForeignKey: "postId"},
			},
		},
		{
			Name:   "Comment",
			Schema: []model.Field{{Name: "id", Type: model.TypeUUID, PrimaryKey: true}},
			Relations: []model.Relation{
				{Name: "post", Kind: model.BelongsTo, Target: "Post", ForeignKey: "postId"},
			},
		},
	}

	if err := model.DetectCycles(models); err != nil {
		t.Fatalf("expected no cycle, got: %v", err)
	}
}
