package postgres

import "testing"

func TestMigrateURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@host:5432/db?sslmode=disable", "pgx5://u:p@host:5432/db?sslmode=disable"},
		{"postgresql://u:p@host/db", "pgx5://u:p@host/db"},
		{"pgx5://u:p@host/db", "pgx5://u:p@host/db"},
	}
	for _, tc := range cases {
		if got := migrateURL(tc.in); got != tc.want {
			t.Fatalf("migrate url mismatch: %s != %s", got, tc.want)
		}
	}
}
