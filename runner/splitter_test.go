package runner

import (
	"fmt"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/ridoystarlord/fbmeta/generator"
	"github.com/ridoystarlord/fbmeta/schema"
)

func TestSplitStatements(t *testing.T) {
	testCases := []struct {
		name     string
		script   string
		expected []string
	}{
		{
			name:   "TwoStatements",
			script: "CREATE TABLE X (A INT); CREATE TABLE Y (B INT);",
			expected: []string{
				"CREATE TABLE X (A INT);",
				"CREATE TABLE Y (B INT);",
			},
		},
		{
			name:     "NestedBlocks",
			script:   "CREATE PROCEDURE P AS BEGIN IF (1=1) THEN BEGIN X; END END;",
			expected: []string{"CREATE PROCEDURE P AS BEGIN IF (1=1) THEN BEGIN X; END END;"},
		},
		{
			name:     "CommentedSemicolon",
			script:   "CREATE TABLE A (X INT) /* ; */;",
			expected: []string{"CREATE TABLE A (X INT);"},
		},
		{
			name:     "MultilineComment",
			script:   "/* header\n; still comment;\n*/\nCREATE DOMAIN D AS INTEGER;",
			expected: []string{"CREATE DOMAIN D AS INTEGER;"},
		},
		{
			name:     "DialectPragma",
			script:   "set sql dialect 3;\nCREATE DOMAIN D AS INTEGER;",
			expected: []string{"CREATE DOMAIN D AS INTEGER;"},
		},
		{
			name:     "UnterminatedRemainder",
			script:   "CREATE TABLE X (A INT); CREATE TABLE Y (B INT)  ",
			expected: []string{"CREATE TABLE X (A INT);", "CREATE TABLE Y (B INT)"},
		},
		{
			name:     "BlankStatementsDropped",
			script:   " ;;\n ; CREATE TABLE X (A INT);\n\n",
			expected: []string{"CREATE TABLE X (A INT);"},
		},
		{
			name:     "UnbalancedEnd",
			script:   "END; CREATE TABLE X (A INT); END END;",
			expected: []string{"END;", "CREATE TABLE X (A INT);", "END END;"},
		},
		{
			name:     "CaseInsensitiveKeywords",
			script:   "create procedure p as begin x = 1; end; create table t (a int);",
			expected: []string{"create procedure p as begin x = 1; end;", "create table t (a int);"},
		},
		{
			name:     "KeywordsInsideIdentifiers",
			script:   "CREATE TABLE BEGIN_DATES (END_DATE DATE, WEEKEND INT);CREATE TABLE B (A INT);",
			expected: []string{"CREATE TABLE BEGIN_DATES (END_DATE DATE, WEEKEND INT);", "CREATE TABLE B (A INT);"},
		},
		{
			name:     "SemicolonInStringLiteral",
			script:   "CREATE DOMAIN D AS VARCHAR(5) DEFAULT 'a;b'; CREATE DOMAIN E AS INTEGER;",
			expected: []string{"CREATE DOMAIN D AS VARCHAR(5) DEFAULT 'a;b';", "CREATE DOMAIN E AS INTEGER;"},
		},
		{
			name:     "KeywordInStringLiteral",
			script:   "CREATE DOMAIN D AS VARCHAR(10) DEFAULT 'begin'; CREATE DOMAIN E AS INTEGER;",
			expected: []string{"CREATE DOMAIN D AS VARCHAR(10) DEFAULT 'begin';", "CREATE DOMAIN E AS INTEGER;"},
		},
		{
			name:     "LineComment",
			script:   "-- drop; begin\nCREATE TABLE X (A INT);",
			expected: []string{"-- drop; begin\nCREATE TABLE X (A INT);"},
		},
		{
			name:   "CaseExpressionInsideBody",
			script: "CREATE PROCEDURE P RETURNS (R INT) AS BEGIN R = CASE WHEN 1 = 1 THEN 1 ELSE 0 END; SUSPEND; END;\nCREATE TABLE T (A INT);",
			expected: []string{
				"CREATE PROCEDURE P RETURNS (R INT) AS BEGIN R = CASE WHEN 1 = 1 THEN 1 ELSE 0 END; SUSPEND; END;",
				"CREATE TABLE T (A INT);",
			},
		},
		{
			name:   "DeclareVariableSection",
			script: "ALTER PROCEDURE P AS\nDECLARE VARIABLE X INTEGER;\nDECLARE VARIABLE Y INTEGER;\nBEGIN\n  X = 1;\nEND;\nCREATE TABLE T (A INT);",
			expected: []string{
				"ALTER PROCEDURE P AS\nDECLARE VARIABLE X INTEGER;\nDECLARE VARIABLE Y INTEGER;\nBEGIN\n  X = 1;\nEND;",
				"CREATE TABLE T (A INT);",
			},
		},
		{
			name:     "DeclareAfterLeadingComment",
			script:   "-- totals per customer\nCREATE PROCEDURE P AS\nDECLARE VARIABLE X INTEGER;\nBEGIN\n  X = 1;\nEND;",
			expected: []string{"-- totals per customer\nCREATE PROCEDURE P AS\nDECLARE VARIABLE X INTEGER;\nBEGIN\n  X = 1;\nEND;"},
		},
		{
			name:   "DeclareAfterTrailingComment",
			script: "CREATE TABLE T (A INT); -- note\nCREATE PROCEDURE P AS\nDECLARE VARIABLE X INTEGER;\nBEGIN\n  X = 1;\nEND;",
			expected: []string{
				"CREATE TABLE T (A INT);",
				"-- note\nCREATE PROCEDURE P AS\nDECLARE VARIABLE X INTEGER;\nBEGIN\n  X = 1;\nEND;",
			},
		},
		{
			name:     "DeclareOnlyInComment",
			script:   "-- declare nothing\nALTER TRIGGER T INACTIVE; CREATE TABLE X (A INT);",
			expected: []string{"-- declare nothing\nALTER TRIGGER T INACTIVE;", "CREATE TABLE X (A INT);"},
		},
		{
			name:     "AlterTriggerWithoutBody",
			script:   "ALTER TRIGGER T INACTIVE; CREATE TABLE X (A INT);",
			expected: []string{"ALTER TRIGGER T INACTIVE;", "CREATE TABLE X (A INT);"},
		},
		{
			name:     "Empty",
			script:   "  \n/* only a comment */\n",
			expected: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SplitStatements(tc.script))
		})
	}
}

func TestSplitStatementsStubThenAlter(t *testing.T) {
	script := `CREATE PROCEDURE GET_TOTAL
RETURNS (
    TOTAL INTEGER
)
AS
BEGIN
  SUSPEND;
END;

ALTER PROCEDURE GET_TOTAL
RETURNS (
    TOTAL INTEGER
)
AS
BEGIN
  TOTAL = 1;
  SUSPEND;
END;
`
	stmts := SplitStatements(script)
	assert.Equal(t, 2, len(stmts))
	assert.Equal(t, "CREATE PROCEDURE GET_TOTAL", FirstLine(stmts[0]))
	assert.Equal(t, "ALTER PROCEDURE GET_TOTAL", FirstLine(stmts[1]))
	assert.Contains(t, stmts[1], "TOTAL = 1;")
}

func TestSplitStatementsGeneratedProcedures(t *testing.T) {
	script := generator.GenerateProcedures([]schema.Procedure{{
		Name: "GET_ONE",
		Parameters: []schema.Parameter{
			{Name: "R", SQLType: "INTEGER", Output: true},
		},
		Body: "DECLARE VARIABLE X INTEGER;\nBEGIN\n  X = 1;\n  R = X;\n  SUSPEND;\nEND",
	}})

	stmts := SplitStatements(script)
	assert.Equal(t, 2, len(stmts))
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE PROCEDURE GET_ONE"))
	assert.True(t, strings.HasPrefix(stmts[1], "ALTER PROCEDURE GET_ONE"))
	assert.True(t, strings.HasSuffix(stmts[1], "END;"))
}

func TestSplitStatementsLongDeclareSection(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("CREATE PROCEDURE P AS\n")
	for i := 0; i < 2000; i++ {
		sb.WriteString(fmt.Sprintf("DECLARE VARIABLE V%d INTEGER;\n", i))
	}
	sb.WriteString("BEGIN\n  V0 = 1;\nEND;\nCREATE TABLE T (A INT);")

	stmts := SplitStatements(sb.String())
	assert.Equal(t, 2, len(stmts))
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE PROCEDURE P AS"))
	assert.Equal(t, "CREATE TABLE T (A INT);", stmts[1])
}
