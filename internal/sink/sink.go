package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/megakorre/journalcloud/internal/journal"
	"github.com/megakorre/journalcloud/pkg/log"
)

// Sink ships record batches to one CloudWatch Logs stream, tracking the
// stream's upload sequence token across calls. The token is the serialization
// point enforcing ordered delivery: one sink, one stream, one outstanding
// upload.
type Sink struct {
	client CloudWatchLogsAPI
	group  string
	stream string
	logger log.Logger

	token *string
	nowMs func() int64
}

// Options configures New.
type Options struct {
	Client CloudWatchLogsAPI
	Group  string
	Stream string
	Logger log.Logger
	// NowMs overrides the event timestamp clock. Tests only.
	NowMs func() int64
}

// New creates a Sink. ResolveStream must be called before the first Upload.
func New(opts Options) *Sink {
	nowMs := opts.NowMs
	if nowMs == nil {
		nowMs = func() int64 { return time.Now().UnixMilli() }
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewLogger()
	}
	return &Sink{
		client: opts.Client,
		group:  opts.Group,
		stream: opts.Stream,
		logger: logger.WithComponent("sink"),
		nowMs:  nowMs,
	}
}

// ResolveStream queries the destination for an existing stream with the
// configured name and adopts its upload sequence token; if none exists, it
// creates the stream and starts with an absent token. Must complete before
// the first Upload so the initial token is correct.
func (s *Sink) ResolveStream(ctx context.Context) error {
	out, err := s.client.DescribeLogStreams(ctx, &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName:        aws.String(s.group),
		LogStreamNamePrefix: aws.String(s.stream),
	})
	if err != nil {
		return wrap("describe log streams", err)
	}
	for _, st := range out.LogStreams {
		if aws.ToString(st.LogStreamName) != s.stream {
			continue
		}
		s.token = st.UploadSequenceToken
		s.logger.Info("resolved existing log stream",
			log.Str("group", s.group),
			log.Str("stream", s.stream),
			log.Bool("has_token", s.token != nil))
		return nil
	}

	if _, err := s.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(s.group),
		LogStreamName: aws.String(s.stream),
	}); err != nil {
		return wrap("create log stream", err)
	}
	s.token = nil
	s.logger.Info("created log stream", log.Str("group", s.group), log.Str("stream", s.stream))
	return nil
}

// Upload serializes each record to JSON, stamps wall-clock milliseconds at
// submission time, and submits the batch as one request carrying the current
// sequence token. On success the token is replaced with the one the service
// returns for the next upload.
func (s *Sink) Upload(ctx context.Context, batch *journal.Batch) error {
	events := make([]types.InputLogEvent, len(batch.Records))
	ts := s.nowMs()
	for i, rec := range batch.Records {
		msg, err := json.Marshal(rec)
		if err != nil {
			return &Error{Kind: KindFatal, Op: "encode record", Err: err}
		}
		events[i] = types.InputLogEvent{
			Message:   aws.String(string(msg)),
			Timestamp: aws.Int64(ts),
		}
	}

	out, err := s.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(s.group),
		LogStreamName: aws.String(s.stream),
		SequenceToken: s.token,
		LogEvents:     events,
	})
	if err != nil {
		var accepted *types.DataAlreadyAcceptedException
		if errors.As(err, &accepted) {
			// The service has this batch already (a retry raced a success).
			// Adopt the expected token and treat the batch as delivered.
			s.token = accepted.ExpectedSequenceToken
			s.logger.Warn("batch already accepted by service, advancing",
				log.Int("records", len(events)))
			return nil
		}
		var invalid *types.InvalidSequenceTokenException
		if errors.As(err, &invalid) {
			// Token desync self-heal: adopt the expected token, then retry.
			s.token = invalid.ExpectedSequenceToken
			return &Error{Kind: KindRetryable, Op: "put log events", Err: err}
		}
		return wrap("put log events", err)
	}

	s.token = out.NextSequenceToken
	if info := out.RejectedLogEventsInfo; info != nil {
		// Retention-rejected events can never become acceptable by retrying;
		// record the loss instead of wedging the pipeline.
		s.logger.Warn("service rejected part of the batch",
			log.Any("too_new_start_index", info.TooNewLogEventStartIndex),
			log.Any("too_old_end_index", info.TooOldLogEventEndIndex),
			log.Any("expired_end_index", info.ExpiredLogEventEndIndex))
	}
	s.logger.Debug("batch uploaded", log.Int("records", len(events)))
	return nil
}

// SequenceToken returns the current token, absent before the first upload to
// a fresh stream.
func (s *Sink) SequenceToken() (string, bool) {
	if s.token == nil {
		return "", false
	}
	return *s.token, true
}

// Describe returns the destination identity for logging.
func (s *Sink) Describe() string {
	return fmt.Sprintf("%s/%s", s.group, s.stream)
}
