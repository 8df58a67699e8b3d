package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// REPL reads one question per line from in and prints replies to out.
// "/clear" resets the transcript; "/quit", "/exit" or EOF ends the loop.
type REPL struct {
	Conversation *Conversation
	Renderer     *Renderer
	DocumentID   string // optional: scope every question to one document
	Prompt       string
}

// Run loops until EOF, a quit command or ctx is done.
func (r *REPL) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	prompt := r.Prompt
	if prompt == "" {
		prompt = "> "
	}

	msgs := r.Conversation.Messages()
	fmt.Fprintln(out, r.Renderer.Message(msgs[len(msgs)-1]))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			if err := r.Conversation.Clear(ctx); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			msgs := r.Conversation.Messages()
			fmt.Fprintln(out, r.Renderer.Message(msgs[0]))
			continue
		}

		reply, ok, _ := r.Conversation.Ask(ctx, line, r.DocumentID)
		if !ok {
			continue
		}
		fmt.Fprintln(out, r.Renderer.Message(reply))
	}
}
