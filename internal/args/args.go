package args

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/markis/chunkstream/internal/config"
	"github.com/markis/chunkstream/internal/stream"
	"github.com/spf13/cobra"
)

// Arguments represents the command-line arguments structure.
type Arguments struct {
	Chunks       []string
	Model        string
	Encoding     stream.Encoding
	BufferSize   int
	SSE          bool
	Render       bool
	UsePlainText bool
	Verbose      bool
}

// ParseArgs parses argv and, when stdin is non-nil, reads one chunk per input line.
// Positional arguments take precedence over stdin.
func ParseArgs(cfg config.Config, argv []string, stdin io.Reader) (Arguments, error) {
	args := Arguments{}
	var encoding string

	rootCmd := &cobra.Command{
		Use:   "chunkstream [flags] [chunk...]",
		Short: "Serve a fixed list of text chunks as a byte stream, one chunk per read",
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			args.Chunks = append(args.Chunks, cmdArgs...)
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	if argv == nil {
		argv = []string{}
	}
	rootCmd.SetArgs(argv)

	flags := rootCmd.Flags()
	flags.StringVar(&args.Model, "model", cfg.Model, "Model name stamped on SSE events")
	flags.StringVar(&encoding, "encoding", cfg.Encoding, "Chunk encoding: utf-8 or latin1")
	flags.IntVar(&args.BufferSize, "buffer", cfg.BufferSize, "Read buffer size in bytes")
	flags.BoolVar(&args.SSE, "sse", false, "Frame chunks as chat.completion.chunk events")
	flags.BoolVar(&args.Render, "render", false, "Render chunk content instead of writing raw bytes")
	flags.BoolVar(&args.UsePlainText, "plain", ShouldUsePlainText(cfg), "Disable markdown rendering")
	flags.BoolVarP(&args.Verbose, "verbose", "v", false, "Enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		return Arguments{}, err
	}

	if len(args.Chunks) == 0 && stdin != nil {
		lines, err := readLines(stdin)
		if err != nil {
			return Arguments{}, err
		}
		args.Chunks = lines
	}

	if len(args.Chunks) == 0 {
		return Arguments{}, errors.New("no chunks provided")
	}
	if args.BufferSize <= 0 {
		return Arguments{}, fmt.Errorf("buffer size must be positive, got %d", args.BufferSize)
	}

	enc, err := stream.ParseEncoding(encoding)
	if err != nil {
		return Arguments{}, err
	}
	args.Encoding = enc

	return args, nil
}

// PipedStdin returns os.Stdin when it is not a terminal, otherwise nil.
func PipedStdin() io.Reader {
	if stat, err := os.Stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		return os.Stdin
	}
	return nil
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // 1MB max line
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text()+"\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return lines, nil
}

// ShouldUsePlainText determines if plain text output should be used based on environment and terminal settings.
func ShouldUsePlainText(cfg config.Config) bool {
	if cfg.Render.Format == "plain" {
		return true
	}

	if fileInfo, _ := os.Stdout.Stat(); fileInfo != nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			return true
		}
	}

	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}

	if term := os.Getenv("TERM"); term == "dumb" {
		return true
	}

	return false
}
