package command

import "testing"

func TestParseSlashCommand(t *testing.T) {
	cmd, ok := Parse("  /MSG bob  hi there  bob ")
	if !ok {
		t.Fatalf("expected a command")
	}
	if cmd.Name != "msg" {
		t.Fatalf("expected lower-cased name, got %q", cmd.Name)
	}
	if len(cmd.Args) != 4 || cmd.Arg(0) != "bob" || cmd.Arg(3) != "bob" {
		t.Fatalf("unexpected args %q", cmd.Args)
	}
	if got := cmd.Rest(1); got != "hi there  bob" {
		t.Fatalf("expected body with spacing kept, got %q", got)
	}
	if got := cmd.Arg(9); got != "" {
		t.Fatalf("expected empty missing arg, got %q", got)
	}
	if got := cmd.Rest(9); got != "" {
		t.Fatalf("expected empty rest past the args, got %q", got)
	}
}

func TestParseQuotedArgs(t *testing.T) {
	cmd, ok := Parse(`/join lobby "Big Al"`)
	if !ok || cmd.Name != "join" {
		t.Fatalf("expected join command, got %+v ok=%v", cmd, ok)
	}
	if len(cmd.Args) != 2 || cmd.Args[1] != "Big Al" {
		t.Fatalf("expected quoted nick as one arg, got %q", cmd.Args)
	}
	cmd, _ = Parse(`/form set "room name" the "best" room`)
	if cmd.Arg(1) != "room name" {
		t.Fatalf("expected quoted field, got %q", cmd.Arg(1))
	}
	if got := cmd.Rest(2); got != `the "best" room` {
		t.Fatalf("expected raw rest with quotes, got %q", got)
	}
}

func TestParseEmptyCommand(t *testing.T) {
	cmd, ok := Parse("/   ")
	if !ok || cmd.Name != "" || len(cmd.Args) != 0 {
		t.Fatalf("expected empty command, got %+v ok=%v", cmd, ok)
	}
}

func TestParseMessages(t *testing.T) {
	for _, line := range []string{"hello", "", "//etc/hosts is here", "/me waves", "  /me  waves"} {
		if _, ok := Parse(line); ok {
			t.Fatalf("expected %q to be a message", line)
		}
	}
	if _, ok := Parse("/me"); !ok {
		t.Fatalf("expected bare /me to be a command")
	}
	if _, ok := Parse("/meow"); !ok {
		t.Fatalf("expected /meow to be a command")
	}
}

func TestMessageText(t *testing.T) {
	cases := map[string]string{
		"//etc/hosts": "/etc/hosts",
		"  //x":       "  /x",
		"/me waves":   "/me waves",
		"plain":       "plain",
	}
	for in, want := range cases {
		if got := MessageText(in); got != want {
			t.Fatalf("MessageText(%q): expected %q, got %q", in, want, got)
		}
	}
}
