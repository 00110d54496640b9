package main

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	app_crypto "github.com/polisdao/polis-node/crypto"
	"github.com/polisdao/polis-node/indexer"
	"github.com/polisdao/polis-node/tx"
)

func postJSON(url string, path string, request any, response any) error {
	dat, err := json.Marshal(request)
	if err != nil {
		return err
	}
	res, err := http.Post(url+path, "application/json", bytes.NewReader(dat))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%v: %v", res.Status, string(body))
	}
	if response == nil {
		return nil
	}
	return json.Unmarshal(body, response)
}

func queryHead(url string) (*indexer.GetHeadResponse, error) {
	var head indexer.GetHeadResponse
	if err := postJSON(url, "/getHead", struct{}{}, &head); err != nil {
		return nil, err
	}
	return &head, nil
}

func queryMember(url string, address string) (*indexer.GetMemberResponse, error) {
	var member indexer.GetMemberResponse
	if err := postJSON(url, "/getMember", indexer.GetMemberReq{Address: address}, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// signAndBroadcast completes the envelope with the signer's key material,
// signs it bound to the chain id and posts it to the api. A negative nonce
// is resolved against the signer's account first.
func signAndBroadcast(url string, skeyPath string, btx *tx.GovTx, nonce int64, noSend bool) {
	head, err := queryHead(url)
	if err != nil {
		fmt.Printf("get chain head err:%v\n", err)
		return
	}
	pv := app_crypto.LoadFileKey(skeyPath)
	btx.PubKey = pv.PublicKey()
	if nonce < 0 {
		member, err := queryMember(url, pv.Address())
		if err != nil {
			fmt.Printf("query member err:%v\n", err)
			return
		}
		btx.Nonce = member.Nonce
	} else {
		btx.Nonce = uint64(nonce)
	}
	dat, err := btx.SigData([]byte(head.ChainId))
	if err != nil {
		fmt.Printf("tx sign data err:%v\n", err)
		return
	}
	sig, err := pv.Sign(dat)
	if err != nil {
		fmt.Printf("sign tx err:%v\n", err)
		return
	}
	btx.Sig = [][]byte{sig}
	println("pubkey:", hex.EncodeToString(pv.PublicKey()))
	println("address:", pv.Address())
	if noSend {
		fmt.Println("transaction signatures:")
		for _, sig := range btx.Sig {
			fmt.Println(hex.EncodeToString(sig))
		}
		return
	}
	raw, err := tx.MarshalGovTx(btx)
	if err != nil {
		fmt.Printf("marshal tx err:%v\n", err)
		return
	}
	var res indexer.BroadcastTxResponse
	if err := postJSON(url, "/broadcastTx", indexer.BroadcastTxReq{Tx: base64.StdEncoding.EncodeToString(raw)}, &res); err != nil {
		fmt.Printf("broadcast tx err:%v\n", err)
		return
	}
	out, _ := json.Marshal(res)
	fmt.Printf("%v\n", string(out))
}
