package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"inbox-live/services"
	"inbox-live/websocket"

	"github.com/gookit/color"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

type BaseSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration and, unless a server is targeted, starts one.
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.ServerURL == "" {
		s.Config.ServerURL, s.Config.GrpcAddr = startStack(s.T())
	}
}

// Step prints a colorized header before running fn as a subtest.
func (s *BaseSuite) Step(name string, fn func()) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
	s.Run(name, fn)
}

// Call sends a JSON request and decodes the JSON response into out when out is not nil.
func (s *BaseSuite) Call(method, path, token string, body, out any) int {
	var payload bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&payload).Encode(body))
	}
	request, err := http.NewRequest(method, s.Config.ServerURL+path, &payload)
	s.Require().NoError(err)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := http.DefaultClient.Do(request)
	s.Require().NoError(err)
	defer func() { _ = response.Body.Close() }()

	if out != nil && response.StatusCode < 300 {
		s.Require().NoError(json.NewDecoder(response.Body).Decode(out))
	}
	return response.StatusCode
}

func (s *BaseSuite) Register(username string) services.Session {
	var session services.Session
	status := s.Call(http.MethodPost, "/api/users/register", "", map[string]string{
		"username": username,
		"password": "Correct-Horse-42!",
	}, &session)
	s.Require().Equal(http.StatusCreated, status)
	return session
}

// Listen opens a live connection for userID.
func (s *BaseSuite) Listen(userID string) *gws.Conn {
	url := "ws" + strings.TrimPrefix(s.Config.ServerURL, "http") + "/ws?userId=" + userID
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	return conn
}

// NextFrame waits for one pushed frame.
func (s *BaseSuite) NextFrame(conn *gws.Conn) websocket.Frame {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	var frame websocket.Frame
	s.Require().NoError(conn.ReadJSON(&frame))
	return frame
}

// GrpcConn initializes a gRPC connection with logging, colors, and JSON debugging
func (s *BaseSuite) GrpcConn(t *testing.T, name string, addr string) *grpc.ClientConn {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	marshaler := protojson.MarshalOptions{
		UseProtoNames:   true,
		Multiline:       true,
		EmitUnpopulated: true,
	}

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)

			logBuilder := strings.Builder{}
			fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))

			// Log full JSON request/response bodies if E2E_DEBUG_JSON is enabled
			if s.Config.DebugJSON {
				fmt.Fprintln(&logBuilder, "\nREQUEST:")
				fmt.Fprintln(&logBuilder, marshaler.Format(req.(proto.Message)))
				if err != nil {
					fmt.Fprintln(&logBuilder, "ERROR:", err)
				} else {
					fmt.Fprintln(&logBuilder, "RESPONSE:")
					fmt.Fprintln(&logBuilder, marshaler.Format(reply.(proto.Message)))
				}
			}
			t.Log(logBuilder.String())
			return err
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+addr)
	return conn
}

// WithHealth provides a health client within a contextual test step
func (s *BaseSuite) WithHealth(name string, fn func(ctx context.Context, client healthpb.HealthClient)) {
	conn := s.GrpcConn(s.T(), name, s.Config.GrpcAddr)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fn(ctx, healthpb.NewHealthClient(conn))
}
