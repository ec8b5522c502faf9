package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/smithy-go"

	"github.com/megakorre/journalcloud/internal/journal"
)

// fakeCW is an in-memory CloudWatch Logs double. Streams map name to the
// current upload sequence token (nil until the first put).
type fakeCW struct {
	streams map[string]*string
	puts    []*cloudwatchlogs.PutLogEventsInput
	nextSeq int

	describeErr error
	createErr   error
	putErr      error
}

func newFakeCW() *fakeCW {
	return &fakeCW{streams: map[string]*string{}}
}

func (f *fakeCW) DescribeLogStreams(_ context.Context, in *cloudwatchlogs.DescribeLogStreamsInput,
	_ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	out := &cloudwatchlogs.DescribeLogStreamsOutput{}
	for name, tok := range f.streams {
		out.LogStreams = append(out.LogStreams, types.LogStream{
			LogStreamName:       aws.String(name),
			UploadSequenceToken: tok,
		})
	}
	_ = in
	return out, nil
}

func (f *fakeCW) CreateLogStream(_ context.Context, in *cloudwatchlogs.CreateLogStreamInput,
	_ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.streams[aws.ToString(in.LogStreamName)] = nil
	return &cloudwatchlogs.CreateLogStreamOutput{}, nil
}

func (f *fakeCW) PutLogEvents(_ context.Context, in *cloudwatchlogs.PutLogEventsInput,
	_ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	if f.putErr != nil {
		err := f.putErr
		f.putErr = nil
		return nil, err
	}
	f.puts = append(f.puts, in)
	f.nextSeq++
	tok := fmt.Sprintf("token-%d", f.nextSeq)
	f.streams[aws.ToString(in.LogStreamName)] = aws.String(tok)
	return &cloudwatchlogs.PutLogEventsOutput{NextSequenceToken: aws.String(tok)}, nil
}

func newSink(f *fakeCW) *Sink {
	return New(Options{
		Client: f,
		Group:  "group",
		Stream: "stream",
		NowMs:  func() int64 { return 1234 },
	})
}

func batch(msgs ...string) *journal.Batch {
	b := &journal.Batch{Cursor: "cur"}
	for _, m := range msgs {
		b.Records = append(b.Records, journal.Record{"MESSAGE": m})
	}
	return b
}

func TestResolveStreamCreatesWhenMissing(t *testing.T) {
	f := newFakeCW()
	s := newSink(f)
	if err := s.ResolveStream(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, ok := f.streams["stream"]; !ok {
		t.Fatalf("stream not created")
	}
	if _, ok := s.SequenceToken(); ok {
		t.Fatalf("fresh stream must start with absent token")
	}
}

func TestResolveStreamAdoptsExistingToken(t *testing.T) {
	f := newFakeCW()
	f.streams["stream"] = aws.String("token-9")
	s := newSink(f)
	if err := s.ResolveStream(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	tok, ok := s.SequenceToken()
	if !ok || tok != "token-9" {
		t.Fatalf("token not adopted: %q %v", tok, ok)
	}
}

func TestResolveStreamIgnoresPrefixSiblings(t *testing.T) {
	// describe-by-prefix can return stream-old alongside stream
	f := newFakeCW()
	f.streams["stream-old"] = aws.String("stale")
	s := newSink(f)
	if err := s.ResolveStream(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, ok := f.streams["stream"]; !ok {
		t.Fatalf("exact-name stream should have been created")
	}
	if tok, ok := s.SequenceToken(); ok {
		t.Fatalf("adopted a sibling's token: %q", tok)
	}
}

func TestUploadSerializesAndStamps(t *testing.T) {
	f := newFakeCW()
	s := newSink(f)
	if err := s.ResolveStream(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := s.Upload(context.Background(), batch("hello")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(f.puts) != 1 || len(f.puts[0].LogEvents) != 1 {
		t.Fatalf("unexpected put shape")
	}
	ev := f.puts[0].LogEvents[0]
	if aws.ToInt64(ev.Timestamp) != 1234 {
		t.Fatalf("timestamp must be submission-time ms, got %d", aws.ToInt64(ev.Timestamp))
	}
	var decoded map[string]string
	if err := json.Unmarshal([]byte(aws.ToString(ev.Message)), &decoded); err != nil {
		t.Fatalf("message is not the record's JSON: %v", err)
	}
	if decoded["MESSAGE"] != "hello" {
		t.Fatalf("record content lost: %v", decoded)
	}
}

func TestTokenMonotonicity(t *testing.T) {
	f := newFakeCW()
	s := newSink(f)
	if err := s.ResolveStream(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := s.Upload(context.Background(), batch("m")); err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
	}
	// first call carries no token; each later call carries exactly the token
	// returned by the preceding upload
	if f.puts[0].SequenceToken != nil {
		t.Fatalf("first upload must carry an absent token")
	}
	if aws.ToString(f.puts[1].SequenceToken) != "token-1" {
		t.Fatalf("second upload token: %q", aws.ToString(f.puts[1].SequenceToken))
	}
	if aws.ToString(f.puts[2].SequenceToken) != "token-2" {
		t.Fatalf("third upload token: %q", aws.ToString(f.puts[2].SequenceToken))
	}
}

func TestInvalidTokenSelfHeals(t *testing.T) {
	f := newFakeCW()
	f.putErr = &types.InvalidSequenceTokenException{ExpectedSequenceToken: aws.String("expected-7")}
	s := newSink(f)
	if err := s.ResolveStream(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	err := s.Upload(context.Background(), batch("m"))
	if !IsRetryable(err) {
		t.Fatalf("invalid token must be retryable, got %v", err)
	}
	if tok, _ := s.SequenceToken(); tok != "expected-7" {
		t.Fatalf("expected token not adopted: %q", tok)
	}
	// the retry succeeds with the adopted token
	if err := s.Upload(context.Background(), batch("m")); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if aws.ToString(f.puts[0].SequenceToken) != "expected-7" {
		t.Fatalf("retry did not use adopted token")
	}
}

func TestDataAlreadyAcceptedIsSuccess(t *testing.T) {
	f := newFakeCW()
	f.putErr = &types.DataAlreadyAcceptedException{ExpectedSequenceToken: aws.String("expected-3")}
	s := newSink(f)
	if err := s.ResolveStream(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := s.Upload(context.Background(), batch("m")); err != nil {
		t.Fatalf("already-accepted must count as delivered, got %v", err)
	}
	if tok, _ := s.SequenceToken(); tok != "expected-3" {
		t.Fatalf("expected token not adopted: %q", tok)
	}
}

func TestThrottlingClassified(t *testing.T) {
	f := newFakeCW()
	f.putErr = &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}
	s := newSink(f)
	if err := s.ResolveStream(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	err := s.Upload(context.Background(), batch("m"))
	if !IsThrottled(err) {
		t.Fatalf("expected throttled classification, got %v", err)
	}
}

func TestUnknownAPIErrorIsFatal(t *testing.T) {
	f := newFakeCW()
	f.putErr = &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "no"}
	s := newSink(f)
	if err := s.ResolveStream(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	err := s.Upload(context.Background(), batch("m"))
	if IsRetryable(err) {
		t.Fatalf("auth failure must be fatal, got %v", err)
	}
	var se *Error
	if !errors.As(err, &se) || se.Kind != KindFatal {
		t.Fatalf("expected fatal sink error, got %v", err)
	}
}

func TestTransportErrorIsRetryable(t *testing.T) {
	f := newFakeCW()
	f.putErr = errors.New("connection reset by peer")
	s := newSink(f)
	if err := s.ResolveStream(context.Background()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := s.Upload(context.Background(), batch("m")); !IsRetryable(err) {
		t.Fatalf("transport error must be retryable, got %v", err)
	}
}
