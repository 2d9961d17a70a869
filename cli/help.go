// Copyright (c) 2025-2026, The NRLS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package cli

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/term"

	"github.com/openphy/nr-ls/logger"
)

// Help renders the console help texts, parsed out of the command reference.
type Help struct {
	width     uint
	indent    uint
	reference map[string]string
	summary   map[string]string
}

var (
	headerPattern = regexp.MustCompile("^### .+")
	mdLinkPattern = regexp.MustCompile(`\(#[a-z]+\)`)
)

// The command reference is embedded so that 'help' works the same in a
// detached binary as in the repo.
//
//go:embed README.md
var helpFile string

func newHelp() Help {
	h := Help{
		width:     80,
		indent:    10,
		reference: make(map[string]string),
		summary:   make(map[string]string),
	}
	h.parseReference()
	h.update()
	return h
}

// update adapts the output width to the user's terminal.
func (help *Help) update() {
	fd := int(os.Stdout.Fd()) // Windows platform requires cast to int.
	if term.IsTerminal(fd) {
		width, _, err := term.GetSize(fd)
		logger.PanicIfError(err, "Could not get terminal size.")
		help.width = uint(width)
	}
}

// outputGeneralHelp lists all commands with their one-line summaries.
func (help *Help) outputGeneralHelp() string {
	cmds := make([]string, 0, len(help.summary))
	for c := range help.summary {
		cmds = append(cmds, c)
	}
	sort.Strings(cmds)

	var b strings.Builder
	for _, c := range cmds {
		fmt.Fprintf(&b, "%-15s %s\n", c, help.summary[c])
	}
	b.WriteString(wordwrap.WrapString("\nFor detailed help per command, use: 'help <command>'\n",
		help.width))
	b.WriteString(wordwrap.WrapString("\nFor detailed CLI command reference in browser go to:\n"+
		"https://github.com/openphy/nr-ls/blob/main/cli/README.md\n", help.width))
	return b.String()
}

// outputCommandHelp renders the full reference section of one command.
func (help *Help) outputCommandHelp(command string) string {
	help.update()
	section, ok := help.reference[command]
	if !ok {
		section = "(No such command.)"
	}

	var b strings.Builder
	for _, line := range strings.Split(wordwrap.WrapString(section, help.width-help.indent-1), "\n") {
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}

// parseReference splits the embedded reference into one help text per '###'
// command section, plus the first prose sentence as the short summary. Shell
// code fences become Definition blocks and bash fences become Examples.
func (help *Help) parseReference() {
	cmd := ""
	indent := ""
	for _, line := range strings.Split(helpFile, "\n") {
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case line == "```shell":
			line, indent = "\nDefinition:", "  "
		case line == "```bash":
			line, indent = "\nExample:", "  "
		case line == "```":
			line, indent = "", ""
		case headerPattern.MatchString(line):
			cmd = strings.TrimSpace(line[strings.Index(line, " ")+1:])
			help.reference[cmd] = ""
			help.summary[cmd] = ""
			line, indent = cmd, ""
		}
		if cmd == "" {
			continue
		}

		help.reference[cmd] += indent + stripMarkdown(line) + "\n"
		if line != cmd && help.summary[cmd] == "" {
			help.summary[cmd] = firstSentence(line)
		}
	}
}

func firstSentence(line string) string {
	if idx := strings.Index(line, "."); idx > 0 {
		return line[:idx+1]
	}
	return line
}

func stripMarkdown(md string) string {
	md = strings.ReplaceAll(md, "\\", "")
	return mdLinkPattern.ReplaceAllString(md, "")
}
