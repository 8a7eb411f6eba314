package store

import "testing"

func TestSplitStatementsIgnoresSemicolonsInsideStrings(t *testing.T) {
	input := `CREATE TABLE a (id INT); INSERT INTO a VALUES ('a;b'); SELECT 1;`

	stmts := splitStatements(input)
	if len(stmts) != 3 {
		t.Fatalf("got %d statements, want 3: %#v", len(stmts), stmts)
	}
}

func TestSplitStatementsTrailingWithoutSemicolon(t *testing.T) {
	input := `CREATE TABLE a (id INT);
SELECT 1`

	stmts := splitStatements(input)
	if len(stmts) != 2 {
		t.Fatalf("got %d statements, want 2: %#v", len(stmts), stmts)
	}
}
