package format

import (
	"strings"
	"testing"
)

const sampleConfig = `#!KAMAILIO
#!define WITH_NAT
####### Global Parameters #########
debug=2
log_stderror=no
listen=udp:127.0.0.1:5060
####### Modules Section ########
loadmodule "tm.so"
loadmodule "sl.so"
#!ifdef WITH_NAT
loadmodule "nathelper.so"
modparam("nathelper", "natping_interval", 30)
#!else
loadmodule "rtpproxy.so"
#!endif
# ----- tm params -----
modparam("tm", "fr_timer", 30000)
####### Routing Logic ########
request_route {
# per request initial checks
route(REQINIT);
if (is_method("CANCEL")) {
if (t_check_trans()) {
route(RELAY);
}
exit;
}
if (!is_method("ACK"))
t_check_trans();
route(RELAY);
}
route[RELAY] {
if (!t_relay()) {
sl_reply_error();
}
exit;
}
route[REQINIT] {
if($ua =~ "friendly-scanner") {
sl_send_reply("200", "OK");
exit;
} else {
xlog("L_INFO", "ok $(ru{uri.user})\n");
}
}
failure_route[MANAGE_FAILURE] {
if (t_is_canceled()) {
exit;
}
}
`

const sampleFormatted = `#!KAMAILIO

#!define WITH_NAT

####### Global Parameters #########

debug=2
log_stderror=no
listen=udp:127.0.0.1:5060

####### Modules Section ########

loadmodule "tm.so"
loadmodule "sl.so"

#!ifdef WITH_NAT
  loadmodule "nathelper.so"
  modparam("nathelper", "natping_interval", 30)
#!else
  loadmodule "rtpproxy.so"
#!endif

# ----- tm params -----
modparam("tm", "fr_timer", 30000)

####### Routing Logic ########

request_route {
  # per request initial checks
  route(REQINIT);
  if (is_method("CANCEL")) {
    if (t_check_trans()) {
      route(RELAY);
    }
    exit;
  }
  if (!is_method("ACK"))
    t_check_trans();
  route(RELAY);
}

route[RELAY] {
  if (!t_relay()) {
    sl_reply_error();
  }
  exit;
}

route[REQINIT] {
  if($ua =~ "friendly-scanner") {
    sl_send_reply("200", "OK");
    exit;
  } else {
    xlog("L_INFO", "ok $(ru{uri.user})\n");
  }
}

failure_route[MANAGE_FAILURE] {
  if (t_is_canceled()) {
    exit;
  }
}
`

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "dialect marker followed by blank line",
			input:    "#!KAMAILIO\nloadmodule \"a.so\"\n",
			expected: "#!KAMAILIO\n\nloadmodule \"a.so\"\n",
		},
		{
			name:     "route body indented",
			input:    "route[A]{\nxlog(\"x\");\n}\n",
			expected: "\nroute[A]{\n  xlog(\"x\");\n}\n",
		},
		{
			name:     "unmatched closer clamps depth",
			input:    "{\n}\n}\n",
			expected: "{\n}\n}\n",
		},
		{
			name:     "preprocessor block indented and spaced",
			input:    "#!ifdef X\na=1\n#!endif\n",
			expected: "\n#!ifdef X\n  a=1\n#!endif\n\n",
		},
		{
			name:     "empty content",
			input:    "",
			expected: "",
		},
		{
			name:     "only blank lines",
			input:    "\n\n   \n\t\n",
			expected: "",
		},
		{
			name:     "banner surrounded by blank lines",
			input:    "loadmodule \"tm.so\"\n####### Routing Logic ########\nrequest_route {\n}",
			expected: "loadmodule \"tm.so\"\n\n####### Routing Logic ########\n\nrequest_route {\n}\n",
		},
		{
			name:     "blank run before route collapsed",
			input:    "x=1\n\n\n\nroute[B] {\nexit;\n}",
			expected: "x=1\n\nroute[B] {\n  exit;\n}\n",
		},
		{
			name:     "preprocessor else stays at parent level",
			input:    "#!ifdef WITH_NAT\nloadmodule \"nathelper.so\"\n#!else\nloadmodule \"x.so\"\n#!endif\nloadmodule \"tm.so\"",
			expected: "\n#!ifdef WITH_NAT\n  loadmodule \"nathelper.so\"\n#!else\n  loadmodule \"x.so\"\n#!endif\n\nloadmodule \"tm.so\"\n",
		},
		{
			name:     "define never indented",
			input:    "route[A] {\n#!define X 1\n}",
			expected: "\nroute[A] {\n#!define X 1\n}\n",
		},
		{
			name:     "comment follows block depth",
			input:    "# top\nrequest_route {\n# check\nsl_send_reply(\"200\", \"OK\");\n}",
			expected: "# top\n\nrequest_route {\n  # check\n  sl_send_reply(\"200\", \"OK\");\n}\n",
		},
		{
			name:     "slash comment treated like hash comment",
			input:    "request_route {\n// check\nexit;\n}",
			expected: "\nrequest_route {\n  // check\n  exit;\n}\n",
		},
		{
			name:     "listen never indented",
			input:    "#!ifdef X\nlisten=udp:1.2.3.4:5060\n#!endif",
			expected: "\n#!ifdef X\nlisten=udp:1.2.3.4:5060\n#!endif\n\n",
		},
		{
			name: "else branch",
			input: "request_route {\nif (is_method(\"INVITE\")) {\nt_relay();\n} else {\n" +
				"sl_send_reply(\"404\", \"Not here\");\n}\n}",
			expected: "\nrequest_route {\n  if (is_method(\"INVITE\")) {\n    t_relay();\n  } else {\n" +
				"    sl_send_reply(\"404\", \"Not here\");\n  }\n}\n",
		},
		{
			name:     "braceless conditional indents one statement",
			input:    "route[R] {\nif (!t_relay())\nsl_reply_error();\nexit;\n}",
			expected: "\nroute[R] {\n  if (!t_relay())\n    sl_reply_error();\n  exit;\n}\n",
		},
		{
			name: "braces on their own lines",
			input: "route[R]\n{\nif ($rU==$null)\n{\nsl_send_reply(\"484\",\"Address Incomplete\");\n" +
				"exit;\n}\n}",
			expected: "\nroute[R]\n{\n  if ($rU==$null)\n  {\n    sl_send_reply(\"484\",\"Address Incomplete\");\n" +
				"    exit;\n  }\n}\n",
		},
		{
			name:     "balanced transformation braces keep depth",
			input:    "request_route {\n$var(user) = $(ru{uri.user});\n}",
			expected: "\nrequest_route {\n  $var(user) = $(ru{uri.user});\n}\n",
		},
		{
			name:     "carriage returns normalized",
			input:    "route[A]{\r\nxlog(\"x\");\r\n}\r\n",
			expected: "\nroute[A]{\n  xlog(\"x\");\n}\n",
		},
		{
			name:     "existing indentation replaced",
			input:    "request_route {\n        t_relay();\n\t}",
			expected: "\nrequest_route {\n  t_relay();\n}\n",
		},
		{
			name:     "full configuration",
			input:    sampleConfig,
			expected: sampleFormatted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.input)
			if result.Formatted != tt.expected {
				t.Errorf("Format() = %q, want %q", result.Formatted, tt.expected)
			}
			if result.Original != tt.input {
				t.Errorf("Format().Original = %q, want input %q", result.Original, tt.input)
			}
		})
	}
}

func TestFormatIdempotent(t *testing.T) {
	inputs := []string{
		sampleConfig,
		"#!KAMAILIO\nloadmodule \"a.so\"\n",
		"route[A]{\nxlog(\"x\");\n}\n",
		"#!ifdef X\na=1\n#!endif\n",
		"#!ifdef A\n#!ifndef B\nx=1\n#!else\nx=2\n#!endif\n#!endif\n",
		"##### one\n\n\n##### two\nroute[A] {\n\n\n}\n",
		"route[R]\n{\nif ($rU==$null)\n{\nexit;\n}\n}",
	}

	for i, input := range inputs {
		once := Format(input).Formatted
		twice := Format(once)
		if twice.Formatted != once {
			t.Errorf("input %d: second pass changed output:\nfirst:  %q\nsecond: %q", i, once, twice.Formatted)
		}
		if twice.Changed() {
			t.Errorf("input %d: Changed() = true on formatted input", i)
		}
	}
}

func TestFormatBlankLineInvariants(t *testing.T) {
	input := "#!KAMAILIO\n\n\n\n" +
		"debug=2\n" +
		"##### section #####\n\n\n" +
		"route[A] {\n}\n\n\n\n\n" +
		"route[B] {\n}\n" +
		"##########\n" +
		"failure_route[C] {\n}\n"
	lines := strings.Split(Format(input).Formatted, "\n")

	isBlank := func(i int) bool { return i >= 0 && i < len(lines) && lines[i] == "" }

	for i, line := range lines {
		switch {
		case line == "#!KAMAILIO":
			if !isBlank(i+1) || isBlank(i+2) {
				t.Errorf("line %d: #!KAMAILIO not followed by exactly one blank line: %q", i, lines)
			}
		case strings.HasPrefix(line, "#####"):
			if !isBlank(i-1) || isBlank(i-2) || !isBlank(i+1) || isBlank(i+2) {
				t.Errorf("line %d: banner not surrounded by exactly one blank line: %q", i, lines)
			}
		case strings.Contains(line, "route["):
			if !isBlank(i-1) || isBlank(i-2) {
				t.Errorf("line %d: route not preceded by exactly one blank line: %q", i, lines)
			}
		}
	}
}

func TestFormatMalformedNeverFails(t *testing.T) {
	inputs := []string{
		"}}}}\n}\nexit;",
		"#!endif\n#!endif\n#!else\nx=1",
		"{{{{\n",
		"} else {\n} else {\n",
	}
	for _, input := range inputs {
		result := Format(input)
		for _, line := range strings.Split(result.Formatted, "\n") {
			if strings.HasPrefix(line, " ") && strings.TrimSpace(line) == "}" {
				t.Errorf("closer indented after underflow: %q", result.Formatted)
			}
		}
	}
}

func TestByName(t *testing.T) {
	tests := []struct {
		name    string
		want    Formatter
		wantErr bool
	}{
		{"", Rules{}, false},
		{StrategyRules, Rules{}, false},
		{StrategyBraces, Braces{}, false},
		{"clang", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ByName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ByName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ByName(%q) = %#v, want %#v", tt.name, got, tt.want)
			}
		})
	}
}
