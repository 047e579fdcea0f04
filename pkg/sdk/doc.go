// Package eccnrag embeds the ECCN classifier in a Go program.
//
// A Client loads a prebuilt index (see `eccnctl build-index`), retrieves the
// nearest taxonomy entries for a product description and asks a generative
// model to pick one of them or abstain.
//
//	client, err := eccnrag.New(ctx,
//	    eccnrag.WithIndexDir("data"),
//	    eccnrag.WithOpenAIEmbedding("http://localhost:8080/v1", "", "BAAI/bge-base-en-v1.5", 768),
//	    eccnrag.WithGemini(os.Getenv("GEMINI_API_KEY"), "gemini-2.5-flash"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	res, err := client.Classify(ctx, "radiation hardened FPGA for satellites")
//	fmt.Println(res.PredictedECN, res.Reason, res.Candidates)
//
// The embedding configuration must match the one the index was built with.
package eccnrag
