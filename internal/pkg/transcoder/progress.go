package transcoder

import (
	"bytes"
	"strconv"
	"strings"
	"time"
)

// progressParser consumes ffmpeg "-progress pipe:1" key=value output and
// turns out_time_us lines into a monotonically increasing percentage. The
// final 100 is emitted by the engine only after the output file exists, so
// the parser caps at 99.
type progressParser struct {
	total time.Duration
	sink  ProgressFunc
	last  int
	buf   bytes.Buffer
}

func newProgressParser(total time.Duration, sink ProgressFunc) *progressParser {
	return &progressParser{total: total, sink: sink}
}

func (p *progressParser) Write(data []byte) (int, error) {
	p.buf.Write(data)
	for {
		line, err := p.buf.ReadString('\n')
		if err != nil {
			// Keep the partial line for the next write.
			p.buf.WriteString(line)
			break
		}
		p.consumeLine(strings.TrimSpace(line))
	}
	return len(data), nil
}

func (p *progressParser) consumeLine(line string) {
	key, value, ok := strings.Cut(line, "=")
	if !ok || key != "out_time_us" {
		return
	}
	us, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || us < 0 {
		return
	}
	p.emit(time.Duration(us) * time.Microsecond)
}

func (p *progressParser) emit(elapsed time.Duration) {
	if p.total <= 0 {
		return
	}
	percent := int(elapsed * 100 / p.total)
	if percent > 99 {
		percent = 99
	}
	if percent <= p.last {
		return
	}
	p.last = percent
	p.sink(percent)
}
