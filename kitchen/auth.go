package kitchen

import (
	gojwt "github.com/golang-jwt/jwt/v5"
)

// optional operator credentials. When set, the token is attached as a bearer
// header on the snapshot call and the websocket handshake. The stream source
// does not enforce it; the claims are only used for display.
type OperatorAuth struct {
	ByJwt      string
	InstanceId Id
	AppVersion string
}

type OperatorClaims struct {
	OperatorName string
	CanteenId    string
}

// the token is issued by the backend; the client displays its claims without
// verifying the signature
func ParseOperatorJwtUnverified(byJwt string) (*OperatorClaims, error) {
	parser := gojwt.NewParser()
	token, _, err := parser.ParseUnverified(byJwt, gojwt.MapClaims{})
	if err != nil {
		return nil, err
	}

	claims := token.Claims.(gojwt.MapClaims)

	operatorClaims := &OperatorClaims{}
	if operatorName, ok := claims["operator_name"]; ok {
		operatorClaims.OperatorName, _ = operatorName.(string)
	}
	if canteenId, ok := claims["canteen_id"]; ok {
		operatorClaims.CanteenId, _ = canteenId.(string)
	}

	return operatorClaims, nil
}
