package ctxutil

import (
	"context"
	"testing"
)

func TestValuesAreIndependent(t *testing.T) {
	ctx := WithTraceData(nil, &TraceData{TraceID: "t1", RequestID: "r1"})
	ctx = WithRequestData(ctx, &RequestData{Principal: "editor"})

	if td := GetTraceData(ctx); td == nil || td.TraceID != "t1" || td.RequestID != "r1" {
		t.Fatalf("GetTraceData: got=%+v", td)
	}
	if rd := GetRequestData(ctx); rd == nil || rd.Principal != "editor" {
		t.Fatalf("GetRequestData: got=%+v", rd)
	}
	if rd := GetRequestData(context.Background()); rd != nil {
		t.Fatalf("GetRequestData empty: want=nil got=%+v", rd)
	}
	if td := GetTraceData(nil); td != nil {
		t.Fatalf("GetTraceData nil ctx: want=nil got=%+v", td)
	}
}
