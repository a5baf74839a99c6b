// flexjson - flex value codec CLI tool
//
// Usage:
//
//	flexjson fmt [--pretty] [file]              Canonicalize flex JSON
//	flexjson check [--as TYPE] [file]           Validate flex JSON
//	flexjson inspect [--as TYPE] [file]         Print the value tree with variant tags
//	flexjson from-yaml [file]                   Convert YAML to flex JSON
//	flexjson to-yaml [--as TYPE] [file]         Convert flex JSON to YAML
//	flexjson encode --codec NAME [--zstd] [file]  Flex JSON -> binary codec
//	flexjson decode --codec NAME [--zstd] [file]  Binary codec -> flex JSON
//	flexjson frame [--sid N] [--crc] [--hash] [file]  JSON lines -> stream frames
//	flexjson unframe [file]                     Stream frames -> JSON lines
//	flexjson version                            Print version info
//
// If no file is given, reads from stdin.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/Neumenon/flexjson/bridge"
	"github.com/Neumenon/flexjson/codec"
	"github.com/Neumenon/flexjson/flex"
	"github.com/Neumenon/flexjson/stream"
)

const libVersion = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// cli carries the streams and resolved settings for one invocation.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg  Config
	log  codec.Logger
	file string
	as   string
	sid  uint64
}

var commands = map[string]func(*cli) error{
	"fmt":       (*cli).cmdFmt,
	"check":     (*cli).cmdCheck,
	"inspect":   (*cli).cmdInspect,
	"from-yaml": (*cli).cmdFromYAML,
	"to-yaml":   (*cli).cmdToYAML,
	"encode":    (*cli).cmdEncode,
	"decode":    (*cli).cmdDecode,
	"frame":     (*cli).cmdFrame,
	"unframe":   (*cli).cmdUnframe,
}

// run executes one command and returns the process exit code: 0 on
// success, 1 when the command fails, 2 on usage errors.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	cmd := args[0]
	switch cmd {
	case "version", "-v", "--version":
		fmt.Fprintf(stdout, "flexjson %s (frame v%d)\n", libVersion, stream.Version)
		return 0
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	}

	handler, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(stderr, "unknown command: %s\n", cmd)
		printUsage(stderr)
		return 2
	}

	flags, file, err := parseArgs(args[1:])
	if err != nil {
		fmt.Fprintf(stderr, "flexjson %s: %v\n", cmd, err)
		return 2
	}
	cfg, err := buildConfig(flags)
	if err != nil {
		fmt.Fprintf(stderr, "flexjson %s: %v\n", cmd, err)
		return 2
	}

	logger, flush, err := newLogger(cfg.Log, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "flexjson %s: %v\n", cmd, err)
		return 2
	}
	defer flush()

	c := &cli{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		cfg:    cfg,
		log:    logger,
		file:   file,
		as:     flags["as"],
		sid:    1,
	}
	if s, ok := flags["sid"]; ok {
		sid, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			fmt.Fprintf(stderr, "flexjson %s: invalid --sid %q\n", cmd, s)
			return 2
		}
		c.sid = sid
	}
	if c.as != "" {
		if _, err := parseType(c.as); err != nil {
			fmt.Fprintf(stderr, "flexjson %s: %v\n", cmd, err)
			return 2
		}
	}

	if err := handler(c); err != nil {
		fmt.Fprintf(stderr, "flexjson %s: %v\n", cmd, err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `flexjson - flex value codec CLI tool

Usage:
  flexjson fmt [options] [file]        Canonicalize flex JSON (sorted keys, tagged floats)
  flexjson check [options] [file]      Validate flex JSON, print its type
  flexjson inspect [options] [file]    Print the value tree with variant tags
  flexjson from-yaml [options] [file]  Convert YAML to flex JSON
  flexjson to-yaml [options] [file]    Convert flex JSON to YAML
  flexjson encode [options] [file]     Flex JSON -> binary codec output
  flexjson decode [options] [file]     Binary codec input -> flex JSON
  flexjson frame [options] [file]      One JSON value per line -> stream frames
  flexjson unframe [options] [file]    Stream frames -> one JSON line per value
  flexjson version                     Print version info

Options:
  --config FILE       YAML config file (default: $FLEXJSON_CONFIG)
  --codec NAME        Binary codec: cbor, json, msgpack (default: json)
  --zstd              Compress encode output / decompress decode input
  --zstd-level N      zstd level 1..22 (default: library default)
  --as TYPE           Narrow decoded JSON: vector, datetime, float, ...
  --pretty            Indent JSON output
  --max-bytes N       Reject inputs and frame payloads larger than N bytes
  --sid N             Stream ID for frame (default: 1)
  --crc               Add CRC-32 to frames
  --hash              Add SHA-256 of the payload to frames
  --log BACKEND       Codec logging: zap, logrus, slog, none (default: none)
  --log-level LEVEL   debug, info, warn, error (default: info)
  --log-format FMT    text or json (default: text)

If no file is given, reads from stdin.

Examples:
  echo '{"b":1,"a":[1.0,"NaN"]}' | flexjson fmt
  # Output: {"a":[1.0,"NaN"],"b":1}

  echo '[1457136000,-28,0]' | flexjson inspect --as datetime
  # Output: datetime [1457136000,-28,0] 2016-03-04T17:00:00-07:00

  flexjson encode --codec cbor --zstd data.json > data.cbor.zst
  flexjson decode --codec cbor --zstd data.cbor.zst
`)
}

// ============================================================
// Argument handling
// ============================================================

var boolFlags = map[string]bool{
	"pretty": true,
	"zstd":   true,
	"crc":    true,
	"hash":   true,
}

var valueFlags = map[string]bool{
	"config":     true,
	"codec":      true,
	"zstd-level": true,
	"as":         true,
	"max-bytes":  true,
	"sid":        true,
	"log":        true,
	"log-level":  true,
	"log-format": true,
}

// parseArgs accepts --name, --name=value and --name value forms plus at
// most one positional file argument ("-" means stdin).
func parseArgs(args []string) (map[string]string, string, error) {
	flags := make(map[string]string)
	file := ""
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "-" || !strings.HasPrefix(arg, "--") {
			if file != "" {
				return nil, "", fmt.Errorf("unexpected argument %q", arg)
			}
			file = arg
			continue
		}

		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		switch {
		case boolFlags[name]:
			if hasValue {
				b, err := strconv.ParseBool(value)
				if err != nil {
					return nil, "", fmt.Errorf("invalid --%s %q", name, value)
				}
				value = strconv.FormatBool(b)
			} else {
				value = "true"
			}
		case valueFlags[name]:
			if !hasValue {
				if i+1 >= len(args) {
					return nil, "", fmt.Errorf("--%s needs a value", name)
				}
				i++
				value = args[i]
			}
		default:
			return nil, "", fmt.Errorf("unknown option --%s", name)
		}
		flags[name] = value
	}
	return flags, file, nil
}

// buildConfig loads the config file, if any, and applies flag overrides.
func buildConfig(flags map[string]string) (Config, error) {
	cfg := DefaultConfig()
	path := flags["config"]
	if path == "" {
		path = os.Getenv(configEnv)
	}
	if path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return cfg, err
		}
	}

	for name, value := range flags {
		switch name {
		case "codec":
			cfg.Codec = value
		case "zstd":
			cfg.Zstd = value == "true"
		case "zstd-level":
			n, err := strconv.Atoi(value)
			if err != nil {
				return cfg, fmt.Errorf("invalid --zstd-level %q", value)
			}
			cfg.ZstdLevel = n
		case "pretty":
			cfg.Pretty = value == "true"
		case "crc":
			cfg.CRC = value == "true"
		case "hash":
			cfg.Hash = value == "true"
		case "max-bytes":
			n, err := strconv.Atoi(value)
			if err != nil {
				return cfg, fmt.Errorf("invalid --max-bytes %q", value)
			}
			cfg.MaxDecodeBytes = n
		case "log":
			cfg.Log.Backend = value
		case "log-level":
			cfg.Log.Level = value
		case "log-format":
			cfg.Log.Format = value
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func parseType(name string) (flex.Type, error) {
	switch strings.ToLower(name) {
	case "undefined", "null":
		return flex.TypeUndefined, nil
	case "integer", "int":
		return flex.TypeInteger, nil
	case "float":
		return flex.TypeFloat, nil
	case "string":
		return flex.TypeString, nil
	case "vector":
		return flex.TypeVector, nil
	case "list":
		return flex.TypeList, nil
	case "dict":
		return flex.TypeDict, nil
	case "datetime":
		return flex.TypeDateTime, nil
	default:
		return 0, fmt.Errorf("unknown type %q", name)
	}
}

// ============================================================
// Shared plumbing
// ============================================================

func (c *cli) input() ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if c.file == "" || c.file == "-" {
		data, err = io.ReadAll(c.stdin)
	} else {
		data, err = os.ReadFile(c.file)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if limit := c.cfg.MaxDecodeBytes; limit > 0 && len(data) > limit {
		return nil, fmt.Errorf("%w: %d > %d", codec.ErrPayloadTooLarge, len(data), limit)
	}
	return data, nil
}

// codecFor builds the named codec with optional compression, logging and
// the decode size limit. The returned func releases compressor state.
func (c *cli) codecFor(name string, compress bool) (codec.Codec[flex.Value], func(), error) {
	inner, err := codec.ByName(name)
	if err != nil {
		return nil, nil, err
	}
	release := func() {}
	label := name
	if compress {
		z, err := codec.NewZstd(inner, c.cfg.ZstdLevel)
		if err != nil {
			return nil, nil, err
		}
		inner = z
		release = func() { _ = z.Close() }
		label += "+zstd"
	}
	var cd codec.Codec[flex.Value] = codec.Logging[flex.Value]{Inner: inner, Log: c.log, Name: label}
	cd = codec.LimitCodec[flex.Value]{Inner: cd, MaxDecode: c.cfg.MaxDecodeBytes}
	return cd, release, nil
}

func (c *cli) textCodec() codec.Codec[flex.Value] {
	cd, _, err := c.codecFor("json", false)
	if err != nil {
		panic(err) // json is always registered
	}
	return cd
}

// narrow applies --as to a decoded value.
func (c *cli) narrow(v flex.Value) (flex.Value, error) {
	if c.as == "" {
		return v, nil
	}
	t, err := parseType(c.as)
	if err != nil {
		return flex.Value{}, err
	}
	return flex.Coerce(v, t)
}

func (c *cli) readValue() (flex.Value, error) {
	data, err := c.input()
	if err != nil {
		return flex.Value{}, err
	}
	v, err := c.textCodec().Decode(data)
	if err != nil {
		return flex.Value{}, err
	}
	return c.narrow(v)
}

func (c *cli) writeJSON(data []byte) error {
	if c.cfg.Pretty {
		var buf bytes.Buffer
		if err := gojson.Indent(&buf, data, "", "  "); err != nil {
			return fmt.Errorf("indent: %w", err)
		}
		data = buf.Bytes()
	}
	if _, err := c.stdout.Write(data); err != nil {
		return err
	}
	_, err := io.WriteString(c.stdout, "\n")
	return err
}

func (c *cli) writeValue(v flex.Value) error {
	out, err := c.textCodec().Encode(v)
	if err != nil {
		return err
	}
	return c.writeJSON(out)
}

// ============================================================
// Commands
// ============================================================

// cmdFmt: flex JSON -> canonical flex JSON
func (c *cli) cmdFmt() error {
	v, err := c.readValue()
	if err != nil {
		return err
	}
	return c.writeValue(v)
}

// cmdCheck: validate and report the top-level type
func (c *cli) cmdCheck() error {
	v, err := c.readValue()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "ok %s\n", v.Type())
	return nil
}

// cmdInspect: print the value tree with variant tags
func (c *cli) cmdInspect() error {
	v, err := c.readValue()
	if err != nil {
		return err
	}
	printTree(c.stdout, "", v, 0)
	return nil
}

func printTree(w io.Writer, label string, v flex.Value, depth int) {
	pad := strings.Repeat("  ", depth)
	switch v.Type() {
	case flex.TypeList:
		items, _ := v.AsList()
		fmt.Fprintf(w, "%s%slist (%d)\n", pad, label, len(items))
		for i, item := range items {
			printTree(w, fmt.Sprintf("[%d] ", i), item, depth+1)
		}
	case flex.TypeDict:
		fmt.Fprintf(w, "%s%sdict (%d)\n", pad, label, v.Len())
		for _, k := range v.Keys() {
			item, _ := v.Get(k)
			printTree(w, strconv.Quote(k)+": ", item, depth+1)
		}
	case flex.TypeVector:
		fmt.Fprintf(w, "%s%svector (%d) %s\n", pad, label, v.Len(), v)
	case flex.TypeDateTime:
		dt, _ := v.AsDateTime()
		if _, ok := dt.Offset(); ok {
			fmt.Fprintf(w, "%s%sdatetime %s %s\n", pad, label, v, dt.Time().Format(time.RFC3339Nano))
		} else {
			fmt.Fprintf(w, "%s%sdatetime %s %s (naive)\n", pad, label, v, dt.Time().Format("2006-01-02T15:04:05.999999999"))
		}
	default:
		fmt.Fprintf(w, "%s%s%s %s\n", pad, label, v.Type(), v)
	}
}

// cmdFromYAML: YAML -> flex JSON
func (c *cli) cmdFromYAML() error {
	data, err := c.input()
	if err != nil {
		return err
	}
	v, err := bridge.FromYAML(data)
	if err != nil {
		return err
	}
	if v, err = c.narrow(v); err != nil {
		return err
	}
	return c.writeValue(v)
}

// cmdToYAML: flex JSON -> YAML
func (c *cli) cmdToYAML() error {
	v, err := c.readValue()
	if err != nil {
		return err
	}
	out, err := bridge.ToYAML(v)
	if err != nil {
		return err
	}
	_, err = c.stdout.Write(out)
	return err
}

// cmdEncode: flex JSON -> --codec bytes
func (c *cli) cmdEncode() error {
	v, err := c.readValue()
	if err != nil {
		return err
	}
	cd, release, err := c.codecFor(c.cfg.Codec, c.cfg.Zstd)
	if err != nil {
		return err
	}
	defer release()

	out, err := cd.Encode(v)
	if err != nil {
		return err
	}
	_, err = c.stdout.Write(out)
	return err
}

// cmdDecode: --codec bytes -> flex JSON
func (c *cli) cmdDecode() error {
	data, err := c.input()
	if err != nil {
		return err
	}
	cd, release, err := c.codecFor(c.cfg.Codec, c.cfg.Zstd)
	if err != nil {
		return err
	}
	defer release()

	v, err := cd.Decode(data)
	if err != nil {
		return err
	}
	if v, err = c.narrow(v); err != nil {
		return err
	}
	return c.writeValue(v)
}

// cmdFrame: one JSON value per line -> frames on stream --sid. The last
// value is marked final.
func (c *cli) cmdFrame() error {
	data, err := c.input()
	if err != nil {
		return err
	}

	var values []flex.Value
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		v, err := c.textCodec().Decode(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if v, err = c.narrow(v); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	var opts []stream.WriterOption
	if c.cfg.CRC {
		opts = append(opts, stream.WithCRC())
	}
	if c.cfg.Hash {
		opts = append(opts, stream.WithHash())
	}
	bw := bufio.NewWriter(c.stdout)
	w := stream.NewWriter(bw, opts...)
	for i, v := range values {
		if i == len(values)-1 {
			err = w.WriteFinal(c.sid, v)
		} else {
			err = w.WriteValue(c.sid, v)
		}
		if err != nil {
			return err
		}
	}
	c.log.Info("frames written", codec.Fields{"sid": c.sid, "frames": len(values)})
	return bw.Flush()
}

// cmdUnframe: frames -> one JSON object per value frame
func (c *cli) cmdUnframe() error {
	var in io.Reader = c.stdin
	if c.file != "" && c.file != "-" {
		f, err := os.Open(c.file)
		if err != nil {
			return fmt.Errorf("open file: %w", err)
		}
		defer f.Close()
		in = f
	}

	var opts []stream.ReaderOption
	if c.cfg.MaxDecodeBytes > 0 {
		opts = append(opts, stream.WithMaxPayload(c.cfg.MaxDecodeBytes))
	}
	r := stream.NewReader(in, opts...)

	remoteErrs := 0
	h := stream.NewFrameHandler()
	h.OnValue = func(sid, seq uint64, v flex.Value, _ *stream.StreamState) error {
		return c.writeValue(flex.Dict(map[string]flex.Value{
			"sid":   flex.Integer(int64(sid)),
			"seq":   flex.Integer(int64(seq)),
			"kind":  flex.String(stream.KindFor(v.Type()).String()),
			"value": v,
		}))
	}
	h.OnErr = func(sid, seq uint64, remote *stream.RemoteError, _ *stream.StreamState) error {
		remoteErrs++
		fmt.Fprintf(c.stderr, "sid=%d seq=%d: %v\n", sid, seq, remote)
		return nil
	}
	h.OnSeqGap = func(sid uint64, expected, got uint64) error {
		c.log.Warn("sequence gap", codec.Fields{"sid": sid, "expected": expected, "got": got})
		fmt.Fprintf(c.stderr, "sid=%d: expected seq %d, got %d\n", sid, expected, got)
		return nil
	}
	h.OnFinal = func(sid uint64, state *stream.StreamState) error {
		c.log.Info("stream final", codec.Fields{"sid": sid, "seq": state.LastSeq})
		return nil
	}

	if err := h.Run(r); err != nil {
		return err
	}
	if remoteErrs > 0 {
		return fmt.Errorf("%d error frame(s) received", remoteErrs)
	}
	return nil
}
