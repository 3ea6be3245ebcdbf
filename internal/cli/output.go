package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Output はCLIの出力形式を管理する。
type Output struct {
	jsonMode bool
	// w はデータの出力先。
	w io.Writer
	// errW はメッセージの出力先。
	errW io.Writer
}

// NewOutput は Output を生成する。jsonMode が true の場合、データをJSONで出力する。
func NewOutput(jsonMode bool, w, errW io.Writer) *Output {
	return &Output{jsonMode: jsonMode, w: w, errW: errW}
}

// Print はモードに応じて表またはJSONでデータを出力する。
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}
	o.Table(headers, rows)
}

// Table はtabwriterで表形式に出力する。
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	_ = tw.Flush()
}

// JSON はインデント付きのJSONで出力する。
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// Body はレスポンスボディを出力する。JSONであれば整形し、そうでなければそのまま出力する。
func (o *Output) Body(body []byte) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		fmt.Fprintln(o.w, string(body))
		return
	}
	fmt.Fprintln(o.w, buf.String())
}

// Success は成功メッセージを出力する。
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}
